// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/hirevote/models"
)

// Sentinel errors for storage facts. Backends return these (optionally
// wrapped) and the voting service translates them into domain errors.
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrHasVotes = errors.New("role has votes")
)

// VoteIndex counts the stored votes of one role by candidate and by voter.
// It is computed inside the same transaction that applies a role update.
type VoteIndex struct {
	Total       int
	ByCandidate map[string]int
	ByVoter     map[string]int
}

func NewVoteIndex(votes []models.Vote) VoteIndex {
	idx := VoteIndex{
		ByCandidate: make(map[string]int),
		ByVoter:     make(map[string]int),
	}
	for _, v := range votes {
		idx.Add(v.CandidateID, v.Voter)
	}
	return idx
}

func (idx *VoteIndex) Add(candidateID, voter string) {
	idx.Total++
	idx.ByCandidate[candidateID]++
	idx.ByVoter[voter]++
}

// UpdateFunc mutates role in place. Returning an error aborts the update and
// leaves the stored role untouched.
type UpdateFunc func(role *models.Role, votes VoteIndex) error

// VoteGuard inspects the current role inside the same atomic section that
// writes the vote. A non-nil error aborts the write and is returned as-is.
type VoteGuard func(role *models.Role) error

// Store is the persistence boundary for roles and votes. The voting service
// depends only on this interface.
type Store interface {
	// CreateRole inserts a new role with its candidates and allowed voters.
	// The ID and timestamps are taken from role as-is.
	CreateRole(ctx context.Context, role *models.Role) error
	GetRole(ctx context.Context, id string) (*models.Role, error)
	// ListRoles returns roles ordered by creation time. An empty status
	// returns every role.
	ListRoles(ctx context.Context, status string) ([]models.Role, error)
	// UpdateRole runs fn against the current role and the role's vote index
	// atomically and persists the result.
	UpdateRole(ctx context.Context, id string, fn UpdateFunc) (*models.Role, error)
	// DeleteRole removes a role that has no votes. Returns ErrHasVotes otherwise.
	DeleteRole(ctx context.Context, id string) error

	// UpsertVote creates or replaces the vote keyed by (voter, role, candidate).
	// updated reports whether a prior vote was replaced. Returns ErrNotFound
	// if the role or candidate disappeared since validation. A non-nil guard
	// sees the role as it is at write time.
	UpsertVote(ctx context.Context, vote *models.Vote, guard VoteGuard) (updated bool, err error)
	ListVotes(ctx context.Context, roleID string) ([]models.Vote, error)
	ListVoterVotes(ctx context.Context, roleID, voter string) ([]models.Vote, error)
	CountVotes(ctx context.Context, roleID string) (int, error)

	Close() error
}
