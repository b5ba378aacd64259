// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package backend opens the store.Store named by a database type.
package backend

import (
	"context"
	"fmt"

	"github.com/danielhkuo/hirevote/cliparse"
	"github.com/danielhkuo/hirevote/store"
	"github.com/danielhkuo/hirevote/store/jsonstore"
	"github.com/danielhkuo/hirevote/store/sqlstore"
)

// Open returns a ready store for dbType. url is used by the SQL backends and
// dataDir by the json backend.
func Open(ctx context.Context, dbType, url, dataDir string) (store.Store, error) {
	switch dbType {
	case cliparse.DatabaseJSON:
		return jsonstore.Open(dataDir)
	case cliparse.DatabaseSQLite, cliparse.DatabasePostgres:
		return sqlstore.Open(ctx, dbType, url)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// FromConfig is Open with the settings from cfg.
func FromConfig(ctx context.Context, cfg cliparse.Config) (store.Store, error) {
	return Open(ctx, cfg.DatabaseType, cfg.DatabaseURL, cfg.DataDir)
}
