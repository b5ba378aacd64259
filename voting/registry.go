// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
)

// listConcurrency bounds the per-role vote lookups in ListRoles.
const listConcurrency = 8

// CreateRole validates req and stores a new active role. Candidates are
// numbered from "1" in the order given; ids on the input are ignored.
func (s *Service) CreateRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	position := strings.TrimSpace(req.Position)
	if position == "" {
		return nil, invalid("position is required")
	}

	candidates := cleanCandidates(req.Candidates)
	if len(candidates) == 0 {
		return nil, invalid("at least one candidate is required")
	}

	emails, err := validateEmails(req.AllowedEmails)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if !models.IsValidStatus(status) {
		status = models.StatusActive
	}

	now := s.clock()
	role := &models.Role{
		ID:                   s.newID(),
		Position:             position,
		Candidates:           numberCandidates(candidates),
		AllowedEmails:        emails,
		Status:               status,
		HiringManager:        NormalizeEmail(req.HiringManager),
		AllowResultsOverride: req.AllowResultsOverride,
		CandidateSeq:         len(candidates),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.store.CreateRole(ctx, role); err != nil {
		return nil, s.fail(ctx, "create role", err)
	}

	s.metrics.IncrementRolesCreated()
	s.logger.InfoContext(ctx, "role created",
		"role_id", role.ID,
		"position", role.Position,
		"candidates", len(role.Candidates),
		"voters", len(role.AllowedEmails),
	)

	return role, nil
}

// UpdateRole applies the non-nil fields of req atomically. Any rejected field
// leaves the stored role unchanged.
func (s *Service) UpdateRole(ctx context.Context, id string, req models.UpdateRoleRequest) (*models.Role, error) {
	// Validate what does not depend on stored state before opening the update
	var candidates []models.CandidateInput
	if len(req.Candidates) > 0 {
		candidates = cleanCandidates(req.Candidates)
		if len(candidates) == 0 {
			return nil, invalid("at least one candidate is required")
		}
	}

	var emails []string
	if len(cleanEmails(req.AllowedEmails)) > 0 {
		var err error
		emails, err = validateEmails(req.AllowedEmails)
		if err != nil {
			return nil, err
		}
	}

	role, err := s.store.UpdateRole(ctx, id, func(role *models.Role, votes store.VoteIndex) error {
		if req.Status != nil && models.IsValidStatus(*req.Status) && *req.Status != role.Status {
			if !canTransition(role.Status, *req.Status) {
				return conflict("cannot change status from %s to %s", role.Status, *req.Status)
			}
			role.Status = *req.Status
		}

		if req.Position != nil {
			if p := strings.TrimSpace(*req.Position); p != "" {
				role.Position = p
			}
		}

		if candidates != nil {
			if err := mergeCandidates(role, candidates, votes); err != nil {
				return err
			}
		}

		if emails != nil {
			keep := make(map[string]bool, len(emails))
			for _, e := range emails {
				keep[e] = true
			}
			for _, e := range role.AllowedEmails {
				if !keep[e] && votes.ByVoter[e] > 0 {
					return conflict("voter %s has recorded votes and cannot be removed", e)
				}
			}
			role.AllowedEmails = emails
		}

		if req.HiringManager != nil {
			role.HiringManager = NormalizeEmail(*req.HiringManager)
		}
		if req.AllowResultsOverride != nil {
			role.AllowResultsOverride = *req.AllowResultsOverride
		}

		role.UpdatedAt = s.clock()
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "update role", err)
	}

	s.logger.InfoContext(ctx, "role updated",
		"role_id", role.ID,
		"status", role.Status,
		"candidates", len(role.Candidates),
		"voters", len(role.AllowedEmails),
	)
	return role, nil
}

// DeleteRole removes a role that has no votes.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	if err := s.store.DeleteRole(ctx, id); err != nil {
		return s.fail(ctx, "delete role", err)
	}
	s.logger.InfoContext(ctx, "role deleted", "role_id", id)
	return nil
}

func (s *Service) GetRole(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get role", err)
	}
	return role, nil
}

// ListRoles returns every role, or those with the given status, annotated
// with their voting progress. Unknown status values match nothing.
func (s *Service) ListRoles(ctx context.Context, status string) ([]models.RoleSummary, error) {
	if status != "" && !models.IsValidStatus(status) {
		return []models.RoleSummary{}, nil
	}

	roles, err := s.store.ListRoles(ctx, status)
	if err != nil {
		return nil, s.fail(ctx, "list roles", err)
	}

	summaries := make([]models.RoleSummary, len(roles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i := range roles {
		g.Go(func() error {
			role := &roles[i]
			votes, err := s.store.ListVotes(gctx, role.ID)
			if err != nil {
				return err
			}
			p := progress{received: len(votes), needed: role.ExpectedVotes()}
			summaries[i] = models.RoleSummary{
				Role:           *role,
				VotesReceived:  p.received,
				VotesNeeded:    p.needed,
				VotersFinished: votersFinished(role, votes),
				Complete:       p.complete(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, "list roles", err)
	}

	return summaries, nil
}
