// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
)

type voteKey struct {
	voter       string
	roleID      string
	candidateID string
}

// Store keeps roles and votes in maps. All methods are safe for concurrent use;
// writes are serialized by a single mutex.
type Store struct {
	mu    sync.RWMutex
	roles map[string]*models.Role
	votes map[voteKey]models.Vote
}

func New() *Store {
	return &Store{
		roles: make(map[string]*models.Role),
		votes: make(map[voteKey]models.Vote),
	}
}

// NewWithData seeds the store, e.g. from a JSON snapshot. Votes whose key
// repeats keep the last occurrence.
func NewWithData(roles []models.Role, votes []models.Vote) (*Store, error) {
	s := New()
	for i := range roles {
		r := roles[i]
		if _, ok := s.roles[r.ID]; ok {
			return nil, fmt.Errorf("duplicate role id %q: %w", r.ID, store.ErrExists)
		}
		s.roles[r.ID] = r.Clone()
	}
	for _, v := range votes {
		s.votes[keyOf(&v)] = v
	}
	return s, nil
}

func keyOf(v *models.Vote) voteKey {
	return voteKey{voter: v.Voter, roleID: v.RoleID, candidateID: v.CandidateID}
}

func (s *Store) CreateRole(ctx context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[role.ID]; ok {
		return store.ErrExists
	}
	s.roles[role.ID] = role.Clone()
	return nil
}

func (s *Store) GetRole(ctx context.Context, id string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Store) ListRoles(ctx context.Context, status string) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]models.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if status != "" && r.Status != status {
			continue
		}
		roles = append(roles, *r.Clone())
	}
	sortRoles(roles)
	return roles, nil
}

func sortRoles(roles []models.Role) {
	sort.Slice(roles, func(i, j int) bool {
		if !roles[i].CreatedAt.Equal(roles[j].CreatedAt) {
			return roles[i].CreatedAt.Before(roles[j].CreatedAt)
		}
		return roles[i].ID < roles[j].ID
	})
}

func (s *Store) UpdateRole(ctx context.Context, id string, fn store.UpdateFunc) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.roles[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	idx := store.NewVoteIndex(nil)
	for k := range s.votes {
		if k.roleID == id {
			idx.Add(k.candidateID, k.voter)
		}
	}

	// Work on a copy so a failed callback leaves nothing behind
	next := current.Clone()
	if err := fn(next, idx); err != nil {
		return nil, err
	}
	next.ID = id
	s.roles[id] = next
	return next.Clone(), nil
}

func (s *Store) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; !ok {
		return store.ErrNotFound
	}
	for k := range s.votes {
		if k.roleID == id {
			return store.ErrHasVotes
		}
	}
	delete(s.roles, id)
	return nil
}

func (s *Store) UpsertVote(ctx context.Context, vote *models.Vote, guard store.VoteGuard) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[vote.RoleID]
	if !ok {
		return false, store.ErrNotFound
	}
	if guard != nil {
		if err := guard(r.Clone()); err != nil {
			return false, err
		}
	}
	if _, ok := r.Candidate(vote.CandidateID); !ok {
		return false, fmt.Errorf("candidate %q: %w", vote.CandidateID, store.ErrNotFound)
	}

	k := keyOf(vote)
	_, existed := s.votes[k]
	s.votes[k] = *vote
	return existed, nil
}

func (s *Store) ListVotes(ctx context.Context, roleID string) ([]models.Vote, error) {
	return s.filterVotes(func(k voteKey) bool { return k.roleID == roleID }), nil
}

func (s *Store) ListVoterVotes(ctx context.Context, roleID, voter string) ([]models.Vote, error) {
	return s.filterVotes(func(k voteKey) bool { return k.roleID == roleID && k.voter == voter }), nil
}

func (s *Store) CountVotes(ctx context.Context, roleID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for k := range s.votes {
		if k.roleID == roleID {
			n++
		}
	}
	return n, nil
}

func (s *Store) filterVotes(match func(voteKey) bool) []models.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := []models.Vote{}
	for k, v := range s.votes {
		if match(k) {
			votes = append(votes, v)
		}
	}
	sortVotes(votes)
	return votes
}

func sortVotes(votes []models.Vote) {
	sort.Slice(votes, func(i, j int) bool {
		a, b := votes[i], votes[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.RoleID != b.RoleID {
			return a.RoleID < b.RoleID
		}
		if a.CandidateID != b.CandidateID {
			return a.CandidateID < b.CandidateID
		}
		return a.Voter < b.Voter
	})
}

// Snapshot returns copies of every role and vote in stable order.
func (s *Store) Snapshot() ([]models.Role, []models.Vote) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]models.Role, 0, len(s.roles))
	for _, r := range s.roles {
		roles = append(roles, *r.Clone())
	}
	sortRoles(roles)

	votes := make([]models.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		votes = append(votes, v)
	}
	sortVotes(votes)
	return roles, votes
}

func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)
