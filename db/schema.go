// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The same DDL runs on PostgreSQL and SQLite.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Roles (one hiring round per row)
CREATE TABLE IF NOT EXISTS roles (
    id TEXT PRIMARY KEY,
    position TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'fulfilled', 'expired')),
    hiring_manager TEXT,
    allow_results_override BOOLEAN NOT NULL DEFAULT FALSE,
    candidate_seq INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_roles_status ON roles(status);

-- Candidates (ids unique within a role)
CREATE TABLE IF NOT EXISTS candidates (
    role_id TEXT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL,
    name TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    PRIMARY KEY (role_id, candidate_id)
);

-- Allowed voters
CREATE TABLE IF NOT EXISTS allowed_voters (
    role_id TEXT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
    email TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    PRIMARY KEY (role_id, email)
);

-- Votes (one per voter, role, candidate; roles with votes cannot be deleted)
CREATE TABLE IF NOT EXISTS votes (
    voter TEXT NOT NULL,
    role_id TEXT NOT NULL REFERENCES roles(id) ON DELETE RESTRICT,
    candidate_id TEXT NOT NULL,
    candidate_name TEXT NOT NULL,
    role_position TEXT NOT NULL,
    choice TEXT NOT NULL CHECK (choice IN ('Inclined', 'Not Inclined')),
    feedback TEXT NOT NULL,
    voted_at TIMESTAMP NOT NULL,
    PRIMARY KEY (voter, role_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_role_id ON votes(role_id);
`
