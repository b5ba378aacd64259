// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migrate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
	"github.com/danielhkuo/hirevote/store/jsonstore"
)

// CopyJSON copies the roles and votes of a JSON data directory into the
// target store, then re-reads the target and compares counts.
func (m *Migrator) CopyJSON(ctx context.Context, dir string, force bool) (Report, error) {
	var report Report

	roles, votes, err := jsonstore.Load(dir)
	if err != nil {
		return report, err
	}

	existing, err := m.dst.ListRoles(ctx, "")
	if err != nil {
		return report, fmt.Errorf("failed to inspect target: %w", err)
	}
	if len(existing) > 0 {
		if !force {
			return report, fmt.Errorf("%w (%d roles); use force to replace", ErrTargetNotEmpty, len(existing))
		}
		r, ok := m.dst.(resetter)
		if !ok {
			return report, ErrNotResettable
		}
		if err := r.Reset(ctx); err != nil {
			return report, fmt.Errorf("failed to reset target: %w", err)
		}
		m.logger.WarnContext(ctx, "target store reset", "roles_removed", len(existing))
	}

	for i := range roles {
		if err := m.dst.CreateRole(ctx, &roles[i]); err != nil {
			return report, fmt.Errorf("failed to copy role %s: %w", roles[i].ID, err)
		}
		report.Roles++
		report.Candidates += len(roles[i].Candidates)
	}

	for i := range votes {
		updated, err := m.dst.UpsertVote(ctx, &votes[i], nil)
		if errors.Is(err, store.ErrNotFound) {
			m.logger.WarnContext(ctx, "skipping orphaned vote",
				"role_id", votes[i].RoleID,
				"candidate_id", votes[i].CandidateID,
			)
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to copy vote: %w", err)
		}
		if !updated {
			report.Votes++
		}
	}

	if err := m.verify(ctx, roles, report); err != nil {
		return report, err
	}

	m.logger.InfoContext(ctx, "json data copied",
		"roles", report.Roles,
		"candidates", report.Candidates,
		"votes", report.Votes,
		"skipped", report.Skipped,
	)
	return report, nil
}

// verify re-reads the target and checks it holds exactly what was written.
func (m *Migrator) verify(ctx context.Context, roles []models.Role, want Report) error {
	var gotRoles, gotCandidates int
	voteCounts := make([]int, len(roles))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stored, err := m.dst.ListRoles(gctx, "")
		if err != nil {
			return err
		}
		gotRoles = len(stored)
		for _, r := range stored {
			gotCandidates += len(r.Candidates)
		}
		return nil
	})
	for i := range roles {
		g.Go(func() error {
			n, err := m.dst.CountVotes(gctx, roles[i].ID)
			voteCounts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to verify target: %w", err)
	}

	gotVotes := 0
	for _, n := range voteCounts {
		gotVotes += n
	}

	switch {
	case gotRoles != want.Roles:
		return fmt.Errorf("role count mismatch: wrote %d, found %d", want.Roles, gotRoles)
	case gotCandidates != want.Candidates:
		return fmt.Errorf("candidate count mismatch: wrote %d, found %d", want.Candidates, gotCandidates)
	case gotVotes != want.Votes:
		return fmt.Errorf("vote count mismatch: wrote %d, found %d", want.Votes, gotVotes)
	}
	return nil
}
