// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the hirevote API server.

hirevote collects blind Inclined / Not Inclined votes from a small hiring
panel. Each role lists its candidates and up to five voter emails; nobody
sees anyone else's votes until every voter has voted on every candidate.

# Starting the Server

The server requires environment variables or CLI flags for configuration.
A .env file in the working directory is loaded first if present:

	ADMIN_KEY=... DATABASE_URL=file:hirevote.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --admin-key ...

# Configuration

Required settings:

  - ADMIN_KEY (--admin-key): secret for role-management requests
  - DATABASE_URL (-d): connection string, unless DATABASE_TYPE is json

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or json (default: sqlite)
  - EMAIL_SALT (--email-salt): salt for voter hashes in logs (random per process if unset)
  - ALLOWED_ORIGINS (--allowed-origins): comma-separated CORS origins, * for any (default: none)
  - DATA_DIR (--data-dir): directory for the json backend (default: data)
  - LOG_LEVEL (--log-level): debug, info, warn or error
  - CONFIG_FILE (-c): YAML file with any of the above

# Architecture

  - handlers: HTTP request handlers (roles, votes, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, admin key, JSON helpers
  - voting: Role registry, vote ledger and results gate
  - store: Storage interface with memory, JSON file and SQL backends
  - metrics: Prometheus collectors
  - models: Domain, request and response types
  - auth: Admin key checks and voter email hashing
  - db: Connection setup and schema creation
  - cliparse: Configuration parsing
  - migrate: Data import and backfill, driven by cmd/hirevote-admin

See package documentation for each component.
*/
package main
