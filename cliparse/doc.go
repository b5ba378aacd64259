// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite, postgres or json (default: sqlite)
  - DatabaseURL: connection string (required for sqlite and postgres)
  - DataDir: directory holding roles.json and votes.json (default: data)
  - AdminKey: secret required on role-management requests (required)
  - EmailSalt: salt for voter pseudonyms in logs (random per process if unset)
  - AllowedOrigins: browser origins allowed cross-origin access (none if unset)
  - LogLevel: slog level (default: info)

# CLI Flags

	-c           YAML config file
	-p           Server port
	-t           Database type
	-d           Database URL
	--data-dir   Data directory for the json backend
	--admin-key  Admin key
	--email-salt Email pseudonym salt
	--allowed-origins Comma-separated CORS origins
	--log-level  Log level

# Environment Variables

Flags fall back to environment variables:

	CONFIG_FILE   → -c
	PORT          → -p
	DATABASE_TYPE → -t
	DATABASE_URL  → -d
	DATA_DIR      → --data-dir
	ADMIN_KEY     → --admin-key
	EMAIL_SALT    → --email-salt
	ALLOWED_ORIGINS → --allowed-origins
	LOG_LEVEL     → --log-level

# Config File

Environment variables fall back to an optional YAML file:

	port: 3318
	database_type: postgres
	database_url: postgres://hirevote@localhost/hirevote?sslmode=disable
	admin_key: change-me
	email_salt: another-secret
	allowed_origins:
	  - https://panel.example.com
	log_level: info

Precedence is flags, then environment, then file, then defaults.

# Validation

ParseFlags returns an error if:

  - ADMIN_KEY is missing
  - DATABASE_URL is missing for sqlite or postgres
  - the database type or log level is unknown
  - PORT is not a number between 1 and 65535

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
*/
package cliparse
