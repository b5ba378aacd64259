// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/hirevote/metrics"
	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
)

// SubmitVote records or replaces the voter's vote on one candidate.
// Checks run in a fixed order so callers always see the first failing rule.
func (s *Service) SubmitVote(ctx context.Context, roleID string, req models.SubmitVoteRequest) (*models.VoteResult, error) {
	result, err := s.submitVote(ctx, roleID, req)
	if err != nil {
		s.metrics.IncrementVotes(metrics.OutcomeRejected)
		return nil, err
	}
	return result, nil
}

func (s *Service) submitVote(ctx context.Context, roleID string, req models.SubmitVoteRequest) (*models.VoteResult, error) {
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, s.fail(ctx, "submit vote", err)
	}

	voter := NormalizeEmail(req.Voter)
	if voter == "" {
		return nil, invalid("voter email is required")
	}
	if !role.IsAllowed(voter) {
		s.logger.WarnContext(ctx, "unauthorized vote attempt",
			"role_id", role.ID,
			"voter_hash", s.voterHash(voter),
		)
		return nil, errNotAuthorized
	}

	candidateID := strings.TrimSpace(req.CandidateID)
	if candidateID == "" {
		return nil, invalid("candidate_id is required")
	}
	candidate, ok := role.Candidate(candidateID)
	if !ok {
		return nil, invalid("unknown candidate %s", candidateID)
	}

	if !models.IsValidChoice(req.Choice) {
		return nil, invalid("choice must be %q or %q", models.ChoiceInclined, models.ChoiceNotInclined)
	}

	feedback := strings.TrimSpace(req.Feedback)
	if feedback == "" {
		return nil, invalid("feedback is required")
	}

	if role.Status != models.StatusActive {
		return nil, errVotingClosed(role)
	}

	vote := &models.Vote{
		Voter:         voter,
		RoleID:        role.ID,
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		RolePosition:  role.Position,
		Choice:        req.Choice,
		Feedback:      feedback,
		Timestamp:     s.clock(),
	}

	updated, err := s.store.UpsertVote(ctx, vote, func(current *models.Role) error {
		return s.voteAllowed(current, voter)
	})
	var verr *Error
	switch {
	case errors.As(err, &verr):
		s.logger.WarnContext(ctx, "vote rejected at write time",
			"role_id", role.ID,
			"voter_hash", s.voterHash(voter),
			"kind", verr.Kind.String(),
		)
		return nil, verr
	case errors.Is(err, store.ErrNotFound):
		// Role or candidate removed between the read above and the write
		return nil, &Error{Kind: KindNotFound, Message: "role or candidate no longer exists", Err: err}
	case err != nil:
		return nil, s.fail(ctx, "submit vote", err)
	}

	mine, err := s.store.ListVoterVotes(ctx, role.ID, voter)
	if err != nil {
		return nil, s.fail(ctx, "submit vote", err)
	}

	outcome, verb := metrics.OutcomeRecorded, "recorded"
	if updated {
		outcome, verb = metrics.OutcomeUpdated, "updated"
	}
	s.metrics.IncrementVotes(outcome)
	s.logger.InfoContext(ctx, "vote submitted",
		"role_id", role.ID,
		"candidate_id", candidate.ID,
		"voter_hash", s.voterHash(voter),
		"updated", updated,
	)

	return &models.VoteResult{
		Message:                    fmt.Sprintf("Vote %s for %s.", verb, candidate.Name),
		Updated:                    updated,
		VotesSubmittedForThisRole:  len(mine),
		TotalCandidatesForThisRole: len(role.Candidates),
	}, nil
}

// voteAllowed repeats the role-dependent checks against the role as stored
// when the vote is written. A voter removed or a role closed after the first
// read must not end up with a stored vote.
func (s *Service) voteAllowed(role *models.Role, voter string) error {
	if !role.IsAllowed(voter) {
		return errNotAuthorized
	}
	if role.Status != models.StatusActive {
		return errVotingClosed(role)
	}
	return nil
}

func errVotingClosed(role *models.Role) *Error {
	return conflict("role is %s; voting is closed", role.Status)
}

// GetVoterProgress lists every candidate of the role with the voter's vote,
// if any. An email outside the allow-list is not an error; the result
// reports it as unauthorized with nothing voted.
func (s *Service) GetVoterProgress(ctx context.Context, roleID, email string) (*models.VoterProgress, error) {
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, s.fail(ctx, "voter progress", err)
	}

	voter := NormalizeEmail(email)
	if voter == "" {
		return nil, invalid("voter email is required")
	}

	votes, err := s.store.ListVoterVotes(ctx, role.ID, voter)
	if err != nil {
		return nil, s.fail(ctx, "voter progress", err)
	}
	byCandidate := make(map[string]models.Vote, len(votes))
	for _, v := range votes {
		byCandidate[v.CandidateID] = v
	}

	progress := &models.VoterProgress{
		RoleID:     role.ID,
		Position:   role.Position,
		Voter:      voter,
		Authorized: role.IsAllowed(voter),
		Total:      len(role.Candidates),
		Candidates: make([]models.CandidateStatus, 0, len(role.Candidates)),
	}
	for _, c := range role.Candidates {
		cs := models.CandidateStatus{CandidateID: c.ID, Name: c.Name}
		if v, ok := byCandidate[c.ID]; ok {
			ts := v.Timestamp
			cs.Voted = true
			cs.Choice = v.Choice
			cs.Feedback = v.Feedback
			cs.Timestamp = &ts
			progress.Submitted++
		}
		progress.Candidates = append(progress.Candidates, cs)
	}

	return progress, nil
}
