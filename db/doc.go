// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the SQL database and creates its schema.

# Connecting

Open selects the driver by database type and pings the connection:

	conn, err := db.Open(ctx, db.TypeSQLite, "file:hirevote.db")
	conn, err := db.Open(ctx, db.TypePostgres, "postgres://...")

SQLite connections get foreign_keys, busy_timeout and WAL pragmas and are
limited to one open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL is valid on PostgreSQL and SQLite.

# Tables

  - roles: position, status, hiring manager, override flag, candidate sequence
  - candidates: candidates per role, (role_id, candidate_id) unique
  - allowed_voters: voter allow-list per role, (role_id, email) unique
  - votes: one row per (voter, role_id, candidate_id)

# Relationships

	roles 1──* candidates      (ON DELETE CASCADE)
	roles 1──* allowed_voters  (ON DELETE CASCADE)
	roles 1──* votes           (ON DELETE RESTRICT)

# Indexes

  - roles.status
  - votes.role_id
*/
package db
