// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"fmt"

	"github.com/danielhkuo/hirevote/models"
)

// GetResults returns the role's tally. Until every allowed voter has voted on
// every candidate only the counters are returned, unless the role allows an
// early look.
func (s *Service) GetResults(ctx context.Context, roleID string) (*models.ResultsView, error) {
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, s.fail(ctx, "get results", err)
	}

	p, err := s.progressOf(ctx, role)
	if err != nil {
		return nil, s.fail(ctx, "get results", err)
	}

	view := &models.ResultsView{
		RoleID:        role.ID,
		Position:      role.Position,
		Complete:      p.complete(),
		VotesReceived: p.received,
		VotesNeeded:   p.needed,
	}

	if !p.complete() && !role.AllowResultsOverride {
		view.Message = fmt.Sprintf("Waiting for %d more vote(s)", p.remaining())
		s.metrics.IncrementResultsViews(false)
		return view, nil
	}

	votes, err := s.store.ListVotes(ctx, role.ID)
	if err != nil {
		return nil, s.fail(ctx, "get results", err)
	}

	index := make(map[string]int, len(role.Candidates))
	view.Candidates = make([]models.CandidateTally, len(role.Candidates))
	for i, c := range role.Candidates {
		index[c.ID] = i
		view.Candidates[i] = models.CandidateTally{
			CandidateID: c.ID,
			Name:        c.Name,
			Votes:       []models.VoteDetail{},
		}
	}
	for _, v := range votes {
		i, ok := index[v.CandidateID]
		if !ok {
			continue
		}
		tally := &view.Candidates[i]
		if v.Choice == models.ChoiceInclined {
			tally.Inclined++
		} else {
			tally.NotInclined++
		}
		tally.Votes = append(tally.Votes, models.VoteDetail{
			Voter:     v.Voter,
			Choice:    v.Choice,
			Feedback:  v.Feedback,
			Timestamp: v.Timestamp,
		})
		view.TotalVotes++
	}
	view.EarlyDisclosure = !p.complete()

	s.metrics.IncrementResultsViews(true)
	s.logger.InfoContext(ctx, "results disclosed",
		"role_id", role.ID,
		"total_votes", view.TotalVotes,
		"early", view.EarlyDisclosure,
	)

	return view, nil
}

// GetStatus returns completeness counters without any vote content.
func (s *Service) GetStatus(ctx context.Context, roleID string) (*models.StatusView, error) {
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, s.fail(ctx, "get status", err)
	}

	votes, err := s.store.ListVotes(ctx, role.ID)
	if err != nil {
		return nil, s.fail(ctx, "get status", err)
	}
	p := progress{received: len(votes), needed: role.ExpectedVotes()}

	return &models.StatusView{
		RoleID:          role.ID,
		Position:        role.Position,
		Status:          role.Status,
		VotesReceived:   p.received,
		VotesNeeded:     p.needed,
		Complete:        p.complete(),
		VotersTotal:     len(role.AllowedEmails),
		VotersFinished:  votersFinished(role, votes),
		CandidatesTotal: len(role.Candidates),
		VotingLocked:    p.received > 0,
	}, nil
}
