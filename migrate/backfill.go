// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
	"github.com/danielhkuo/hirevote/voting"
)

// BackfillHiringManager sets email as the hiring manager of every role that
// has none and returns the ids of the roles it changed.
func (m *Migrator) BackfillHiringManager(ctx context.Context, email string) ([]string, error) {
	email = voting.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid hiring manager email %q", email)
	}

	roles, err := m.dst.ListRoles(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	var updated []string
	for _, r := range roles {
		if r.HiringManager != "" {
			continue
		}
		_, err := m.dst.UpdateRole(ctx, r.ID, func(role *models.Role, _ store.VoteIndex) error {
			// Set concurrently since the list was read
			if role.HiringManager != "" {
				return nil
			}
			role.HiringManager = email
			role.UpdatedAt = m.now()
			return nil
		})
		if err != nil {
			return updated, fmt.Errorf("failed to update role %s: %w", r.ID, err)
		}
		updated = append(updated, r.ID)
		m.logger.InfoContext(ctx, "hiring manager set", "role_id", r.ID, "position", r.Position)
	}

	return updated, nil
}
