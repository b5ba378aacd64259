// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package storetest holds the behaviour every store.Store backend must share.
// Backend packages run it from their own tests:
//
//	suite.Run(t, &storetest.Suite{NewStore: func(t *testing.T) store.Store { ... }})
package storetest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
)

type Suite struct {
	suite.Suite

	// NewStore returns an empty store. Called before every test.
	NewStore func(t *testing.T) store.Store

	store store.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore(s.T())
	s.T().Cleanup(func() { s.store.Close() })
}

// Store returns the backend under test.
func (s *Suite) Store() store.Store {
	return s.store
}

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// NewRole builds a role with n candidates named "Candidate 1..n".
func NewRole(position string, n int, emails ...string) *models.Role {
	r := &models.Role{
		ID:            uuid.NewString(),
		Position:      position,
		Status:        models.StatusActive,
		AllowedEmails: emails,
		CandidateSeq:  n,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
	for i := 1; i <= n; i++ {
		id := strconv.Itoa(i)
		r.Candidates = append(r.Candidates, models.Candidate{ID: id, Name: "Candidate " + id})
	}
	return r
}

func newVote(r *models.Role, voter, candidateID, choice string, at time.Time) *models.Vote {
	c, _ := r.Candidate(candidateID)
	return &models.Vote{
		Voter:         voter,
		RoleID:        r.ID,
		CandidateID:   candidateID,
		CandidateName: c.Name,
		RolePosition:  r.Position,
		Choice:        choice,
		Feedback:      "feedback from " + voter,
		Timestamp:     at,
	}
}

func (s *Suite) mustCreate(r *models.Role) {
	s.Require().NoError(s.store.CreateRole(s.ctx, r))
}

func (s *Suite) TestCreateAndGetRole() {
	r := NewRole("Backend Engineer", 3, "a@x.io", "b@x.io")
	r.HiringManager = "boss@x.io"
	r.AllowResultsOverride = true
	s.mustCreate(r)

	got, err := s.store.GetRole(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Position, got.Position)
	s.Equal(r.Candidates, got.Candidates)
	s.Equal(r.AllowedEmails, got.AllowedEmails)
	s.Equal(models.StatusActive, got.Status)
	s.Equal("boss@x.io", got.HiringManager)
	s.True(got.AllowResultsOverride)
	s.Equal(3, got.CandidateSeq)
	s.True(base.Equal(got.CreatedAt))

	s.Run("duplicate id", func() {
		s.ErrorIs(s.store.CreateRole(s.ctx, r), store.ErrExists)
	})

	s.Run("unknown id", func() {
		_, err := s.store.GetRole(s.ctx, "missing")
		s.ErrorIs(err, store.ErrNotFound)
	})

	s.Run("returned role is a copy", func() {
		got.Candidates[0].Name = "mutated"
		again, err := s.store.GetRole(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal("Candidate 1", again.Candidates[0].Name)
	})
}

func (s *Suite) TestListRoles() {
	first := NewRole("First", 1, "a@x.io")
	second := NewRole("Second", 2, "a@x.io")
	second.CreatedAt = base.Add(time.Hour)
	second.Status = models.StatusFulfilled
	s.mustCreate(second)
	s.mustCreate(first)

	all, err := s.store.ListRoles(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("First", all[0].Position)
	s.Equal("Second", all[1].Position)
	s.Len(all[1].Candidates, 2)
	s.Equal([]string{"a@x.io"}, all[1].AllowedEmails)

	fulfilled, err := s.store.ListRoles(s.ctx, models.StatusFulfilled)
	s.Require().NoError(err)
	s.Require().Len(fulfilled, 1)
	s.Equal(second.ID, fulfilled[0].ID)

	none, err := s.store.ListRoles(s.ctx, "archived")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestUpdateRole() {
	r := NewRole("Designer", 2, "a@x.io", "b@x.io")
	s.mustCreate(r)
	_, err := s.store.UpsertVote(s.ctx, newVote(r, "a@x.io", "1", models.ChoiceInclined, base), nil)
	s.Require().NoError(err)

	s.Run("callback sees vote index", func() {
		updated, err := s.store.UpdateRole(s.ctx, r.ID, func(role *models.Role, votes store.VoteIndex) error {
			s.Equal(1, votes.Total)
			s.Equal(1, votes.ByCandidate["1"])
			s.Equal(1, votes.ByVoter["a@x.io"])
			role.Position = "Senior Designer"
			role.Candidates = append(role.Candidates, models.Candidate{ID: "3", Name: "Candidate 3"})
			role.AllowedEmails = []string{"a@x.io"}
			role.CandidateSeq = 3
			role.UpdatedAt = base.Add(time.Minute)
			return nil
		})
		s.Require().NoError(err)
		s.Equal("Senior Designer", updated.Position)

		got, err := s.store.GetRole(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal("Senior Designer", got.Position)
		s.Len(got.Candidates, 3)
		s.Equal([]string{"a@x.io"}, got.AllowedEmails)
		s.Equal(3, got.CandidateSeq)
	})

	s.Run("failed callback changes nothing", func() {
		_, err := s.store.UpdateRole(s.ctx, r.ID, func(role *models.Role, _ store.VoteIndex) error {
			role.Position = "should not stick"
			role.Candidates = nil
			return store.ErrHasVotes
		})
		s.ErrorIs(err, store.ErrHasVotes)

		got, err := s.store.GetRole(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal("Senior Designer", got.Position)
		s.Len(got.Candidates, 3)
	})

	s.Run("unknown role", func() {
		_, err := s.store.UpdateRole(s.ctx, "missing", func(*models.Role, store.VoteIndex) error { return nil })
		s.ErrorIs(err, store.ErrNotFound)
	})
}

func (s *Suite) TestDeleteRole() {
	empty := NewRole("Empty", 1, "a@x.io")
	voted := NewRole("Voted", 1, "a@x.io")
	s.mustCreate(empty)
	s.mustCreate(voted)
	_, err := s.store.UpsertVote(s.ctx, newVote(voted, "a@x.io", "1", models.ChoiceNotInclined, base), nil)
	s.Require().NoError(err)

	s.NoError(s.store.DeleteRole(s.ctx, empty.ID))
	_, err = s.store.GetRole(s.ctx, empty.ID)
	s.ErrorIs(err, store.ErrNotFound)

	s.ErrorIs(s.store.DeleteRole(s.ctx, voted.ID), store.ErrHasVotes)
	_, err = s.store.GetRole(s.ctx, voted.ID)
	s.NoError(err)

	s.ErrorIs(s.store.DeleteRole(s.ctx, "missing"), store.ErrNotFound)
}

func (s *Suite) TestUpsertVote() {
	r := NewRole("SRE", 2, "a@x.io", "b@x.io")
	s.mustCreate(r)

	updated, err := s.store.UpsertVote(s.ctx, newVote(r, "a@x.io", "1", models.ChoiceInclined, base), nil)
	s.Require().NoError(err)
	s.False(updated)

	v := newVote(r, "a@x.io", "1", models.ChoiceNotInclined, base.Add(time.Minute))
	v.Feedback = "changed my mind"
	updated, err = s.store.UpsertVote(s.ctx, v, nil)
	s.Require().NoError(err)
	s.True(updated)

	_, err = s.store.UpsertVote(s.ctx, newVote(r, "b@x.io", "2", models.ChoiceInclined, base.Add(2*time.Minute)), nil)
	s.Require().NoError(err)

	votes, err := s.store.ListVotes(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().Len(votes, 2)
	s.Equal("a@x.io", votes[0].Voter)
	s.Equal(models.ChoiceNotInclined, votes[0].Choice)
	s.Equal("changed my mind", votes[0].Feedback)
	s.Equal("Candidate 1", votes[0].CandidateName)
	s.Equal("SRE", votes[0].RolePosition)
	s.True(base.Add(time.Minute).Equal(votes[0].Timestamp))

	mine, err := s.store.ListVoterVotes(s.ctx, r.ID, "b@x.io")
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal("2", mine[0].CandidateID)

	n, err := s.store.CountVotes(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(2, n)

	s.Run("unknown role", func() {
		v := newVote(r, "a@x.io", "1", models.ChoiceInclined, base)
		v.RoleID = "missing"
		_, err := s.store.UpsertVote(s.ctx, v, nil)
		s.ErrorIs(err, store.ErrNotFound)
	})

	s.Run("unknown candidate", func() {
		_, err := s.store.UpsertVote(s.ctx, newVote(r, "a@x.io", "9", models.ChoiceInclined, base), nil)
		s.ErrorIs(err, store.ErrNotFound)
	})

	s.Run("empty role lists no votes", func() {
		other := NewRole("Other", 1, "a@x.io")
		s.mustCreate(other)
		votes, err := s.store.ListVotes(s.ctx, other.ID)
		s.Require().NoError(err)
		s.NotNil(votes)
		s.Empty(votes)
	})
}

// TestUpsertVoteGuard checks that the guard sees the role as last updated and
// that a rejection stores nothing.
func (s *Suite) TestUpsertVoteGuard() {
	r := NewRole("Guarded", 1, "a@x.io", "b@x.io")
	s.mustCreate(r)

	_, err := s.store.UpdateRole(s.ctx, r.ID, func(role *models.Role, _ store.VoteIndex) error {
		role.AllowedEmails = []string{"a@x.io"}
		role.Status = models.StatusExpired
		return nil
	})
	s.Require().NoError(err)

	errClosed := errors.New("closed")
	var seen *models.Role
	_, err = s.store.UpsertVote(s.ctx, newVote(r, "b@x.io", "1", models.ChoiceInclined, base), func(role *models.Role) error {
		seen = role
		return errClosed
	})
	s.ErrorIs(err, errClosed)
	s.Require().NotNil(seen)
	s.Equal(models.StatusExpired, seen.Status)
	s.Equal([]string{"a@x.io"}, seen.AllowedEmails)

	n, err := s.store.CountVotes(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Zero(n)

	updated, err := s.store.UpsertVote(s.ctx, newVote(r, "a@x.io", "1", models.ChoiceInclined, base), func(*models.Role) error {
		return nil
	})
	s.Require().NoError(err)
	s.False(updated)
}

// TestConcurrentUpsert checks that racing writers on the same key leave
// exactly one vote and that exactly one of them created it.
func (s *Suite) TestConcurrentUpsert() {
	r := NewRole("Concurrent", 1, "a@x.io")
	s.mustCreate(r)

	const goroutines = 20
	var wg sync.WaitGroup
	var created, failed atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := newVote(r, "a@x.io", "1", models.ChoiceInclined, base.Add(time.Duration(i)*time.Second))
			updated, err := s.store.UpsertVote(s.ctx, v, nil)
			if err != nil {
				failed.Add(1)
				return
			}
			if !updated {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(0), failed.Load())
	s.Equal(int32(1), created.Load())

	n, err := s.store.CountVotes(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(1, n)
}
