// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migrate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/hirevote/store"
)

var (
	ErrTargetNotEmpty = errors.New("target store already has roles")
	ErrNotResettable  = errors.New("target store cannot be reset")
)

// Report counts what a migration wrote.
type Report struct {
	Roles      int
	Candidates int
	Votes      int
	Skipped    int
}

// resetter is implemented by stores that can drop all data at once.
type resetter interface {
	Reset(ctx context.Context) error
}

type Migrator struct {
	dst    store.Store
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Migrator writing to dst. A nil logger uses slog.Default().
func New(dst store.Store, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		dst:    dst,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}
