// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the admin-key check and log-safe voter hashing.

# Admin Keys

Role management requires the configured ADMIN_KEY in the X-Admin-Key header:

	err := auth.ValidateAdminKey(r.Header.Get(auth.AdminKeyHeader), cfg.AdminKey)

The comparison is constant time. A fresh key can be generated with:

	key, err := auth.GenerateSecret()

Keys are 32 random bytes, URL-safe base64 encoded without padding.

# Email Hashing

Voter emails never appear in logs in clear text:

	hash := auth.HashEmail(email, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256, stable for a given salt
so log lines for the same voter can be correlated.
*/
package auth
