// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/danielhkuo/hirevote/metrics"
	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
	"github.com/danielhkuo/hirevote/store/memstore"
	"github.com/danielhkuo/hirevote/voting"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memstore.Store
	metrics *metrics.Metrics
	svc     *voting.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New()
	s.metrics = metrics.New()
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	var seq atomic.Int32
	var tick atomic.Int64
	s.svc = voting.New(s.store,
		voting.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		voting.WithMetrics(s.metrics),
		voting.WithClock(func() time.Time {
			return base.Add(time.Duration(tick.Add(1)) * time.Second)
		}),
		voting.WithIDGenerator(func() string {
			return "role-" + strconv.Itoa(int(seq.Add(1)))
		}),
		voting.WithEmailSalt("test-salt"),
	)
}

func (s *ServiceSuite) requireKind(err error, kind voting.Kind) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(kind, voting.KindOf(err), "error: %v", err)
}

// newRole creates the Alice/Bob role with voters a@x.com and b@x.com.
func (s *ServiceSuite) newRole() *models.Role {
	role, err := s.svc.CreateRole(s.ctx, models.CreateRoleRequest{
		Position:      "Backend Engineer",
		Candidates:    models.CandidateNames("Alice", "Bob"),
		AllowedEmails: []string{"a@x.com", "b@x.com"},
	})
	s.Require().NoError(err)
	return role
}

func (s *ServiceSuite) vote(roleID, voter, candidateID, choice string) *models.VoteResult {
	s.T().Helper()
	res, err := s.svc.SubmitVote(s.ctx, roleID, models.SubmitVoteRequest{
		Voter:       voter,
		CandidateID: candidateID,
		Choice:      choice,
		Feedback:    "feedback on " + candidateID,
	})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) TestCreateRole() {
	s.Run("normalizes input", func() {
		role, err := s.svc.CreateRole(s.ctx, models.CreateRoleRequest{
			Position: "  Staff Engineer ",
			Candidates: []models.CandidateInput{
				{Name: " Alice "}, {Name: "   "}, {ID: "9", Name: "Bob"},
			},
			AllowedEmails: []string{" A@X.com", "a@x.com", "", "b@x.com"},
			Status:        "bogus",
			HiringManager: " Boss@X.com ",
		})
		s.Require().NoError(err)

		s.Equal("Staff Engineer", role.Position)
		s.Equal([]models.Candidate{{ID: "1", Name: "Alice"}, {ID: "2", Name: "Bob"}}, role.Candidates)
		s.Equal([]string{"a@x.com", "b@x.com"}, role.AllowedEmails)
		s.Equal(models.StatusActive, role.Status)
		s.Equal("boss@x.com", role.HiringManager)
		s.Equal(2, role.CandidateSeq)
		s.False(role.CreatedAt.IsZero())

		stored, err := s.store.GetRole(s.ctx, role.ID)
		s.Require().NoError(err)
		s.Equal(role.Candidates, stored.Candidates)
	})

	tests := []struct {
		name string
		req  models.CreateRoleRequest
	}{
		{"missing position", models.CreateRoleRequest{
			Position: "  ", Candidates: models.CandidateNames("A"), AllowedEmails: []string{"a@x.com"}}},
		{"no candidates", models.CreateRoleRequest{
			Position: "P", Candidates: models.CandidateNames(" ", ""), AllowedEmails: []string{"a@x.com"}}},
		{"no voters", models.CreateRoleRequest{
			Position: "P", Candidates: models.CandidateNames("A"), AllowedEmails: []string{" "}}},
		{"invalid email", models.CreateRoleRequest{
			Position: "P", Candidates: models.CandidateNames("A"), AllowedEmails: []string{"not-an-email"}}},
		{"six voters", models.CreateRoleRequest{
			Position: "P", Candidates: models.CandidateNames("A"),
			AllowedEmails: []string{"1@x.com", "2@x.com", "3@x.com", "4@x.com", "5@x.com", "6@x.com"}}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			before, _ := s.store.ListRoles(s.ctx, "")
			_, err := s.svc.CreateRole(s.ctx, tt.req)
			s.requireKind(err, voting.KindInvalidInput)

			after, _ := s.store.ListRoles(s.ctx, "")
			s.Len(after, len(before), "nothing persisted")
		})
	}

	s.Run("five voters after dedupe is fine", func() {
		_, err := s.svc.CreateRole(s.ctx, models.CreateRoleRequest{
			Position:   "P",
			Candidates: models.CandidateNames("A"),
			AllowedEmails: []string{"1@x.com", "2@x.com", "3@x.com", "4@x.com", "5@x.com",
				"5@X.COM", " 1@x.com"},
		})
		s.NoError(err)
	})

	s.Equal(float64(2), prom.ToFloat64(s.metrics.RolesCreated))
}

// Scenario A through C: sealed results, completion, and vote replacement
func (s *ServiceSuite) TestResultsLifecycle() {
	role := s.newRole()

	s.vote(role.ID, "a@x.com", "1", models.ChoiceInclined)

	results, err := s.svc.GetResults(s.ctx, role.ID)
	s.Require().NoError(err)
	s.False(results.Complete)
	s.Equal(1, results.VotesReceived)
	s.Equal(4, results.VotesNeeded)
	s.Equal("Waiting for 3 more vote(s)", results.Message)
	s.Nil(results.Candidates, "no vote content while incomplete")
	s.Zero(results.TotalVotes)

	s.vote(role.ID, "a@x.com", "2", models.ChoiceNotInclined)
	s.vote(role.ID, "b@x.com", "1", models.ChoiceInclined)
	s.vote(role.ID, "b@x.com", "2", models.ChoiceInclined)

	results, err = s.svc.GetResults(s.ctx, role.ID)
	s.Require().NoError(err)
	s.True(results.Complete)
	s.False(results.EarlyDisclosure)
	s.Equal(4, results.TotalVotes)
	s.Require().Len(results.Candidates, 2)
	for _, c := range results.Candidates {
		s.Equal(2, c.Inclined+c.NotInclined, "candidate %s", c.Name)
		s.Len(c.Votes, 2)
	}

	// Scenario C
	res, err := s.svc.SubmitVote(s.ctx, role.ID, models.SubmitVoteRequest{
		Voter: "b@x.com", CandidateID: "1", Choice: models.ChoiceNotInclined, Feedback: "second thoughts",
	})
	s.Require().NoError(err)
	s.True(res.Updated)
	s.Equal("Vote updated for Alice.", res.Message)

	results, err = s.svc.GetResults(s.ctx, role.ID)
	s.Require().NoError(err)
	alice := results.Candidates[0]
	s.Equal("Alice", alice.Name)
	s.Equal(1, alice.Inclined)
	s.Equal(1, alice.NotInclined)
	var fromB []models.VoteDetail
	for _, v := range alice.Votes {
		if v.Voter == "b@x.com" {
			fromB = append(fromB, v)
		}
	}
	s.Require().Len(fromB, 1)
	s.Equal(models.ChoiceNotInclined, fromB[0].Choice)
	s.Equal("second thoughts", fromB[0].Feedback)

	s.Equal(float64(1), prom.ToFloat64(s.metrics.ResultsViews.WithLabelValues("false")))
	s.Equal(float64(2), prom.ToFloat64(s.metrics.ResultsViews.WithLabelValues("true")))
}

func (s *ServiceSuite) TestResultsOverride() {
	role, err := s.svc.CreateRole(s.ctx, models.CreateRoleRequest{
		Position:             "Early Look",
		Candidates:           models.CandidateNames("Alice", "Bob"),
		AllowedEmails:        []string{"a@x.com"},
		AllowResultsOverride: true,
	})
	s.Require().NoError(err)
	s.vote(role.ID, "a@x.com", "2", models.ChoiceInclined)

	results, err := s.svc.GetResults(s.ctx, role.ID)
	s.Require().NoError(err)
	s.False(results.Complete)
	s.True(results.EarlyDisclosure)
	s.Equal(1, results.TotalVotes)
	s.Require().Len(results.Candidates, 2)
	s.Empty(results.Candidates[0].Votes)
	s.Equal(1, results.Candidates[1].Inclined)
}

func (s *ServiceSuite) TestSubmitVoteIdempotence() {
	role := s.newRole()
	req := models.SubmitVoteRequest{Voter: "a@x.com", CandidateID: "1", Choice: models.ChoiceInclined, Feedback: "solid"}

	first, err := s.svc.SubmitVote(s.ctx, role.ID, req)
	s.Require().NoError(err)
	second, err := s.svc.SubmitVote(s.ctx, role.ID, req)
	s.Require().NoError(err)

	s.False(first.Updated)
	s.Equal("Vote recorded for Alice.", first.Message)
	s.True(second.Updated)
	s.Equal(1, second.VotesSubmittedForThisRole)
	s.Equal(2, second.TotalCandidatesForThisRole)

	n, err := s.store.CountVotes(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Equal(1, n)

	s.Equal(float64(1), prom.ToFloat64(s.metrics.VotesSubmitted.WithLabelValues(metrics.OutcomeRecorded)))
	s.Equal(float64(1), prom.ToFloat64(s.metrics.VotesSubmitted.WithLabelValues(metrics.OutcomeUpdated)))
}

func (s *ServiceSuite) TestSubmitVoteValidation() {
	role := s.newRole()
	valid := models.SubmitVoteRequest{Voter: "a@x.com", CandidateID: "1", Choice: models.ChoiceInclined, Feedback: "ok"}

	tests := []struct {
		name   string
		roleID string
		mutate func(r *models.SubmitVoteRequest)
		want   voting.Kind
	}{
		{"unknown role", "missing", func(r *models.SubmitVoteRequest) {}, voting.KindNotFound},
		{"empty voter", role.ID, func(r *models.SubmitVoteRequest) { r.Voter = "  " }, voting.KindInvalidInput},
		{"unauthorized voter", role.ID, func(r *models.SubmitVoteRequest) { r.Voter = "c@x.com" }, voting.KindForbidden},
		{"missing candidate", role.ID, func(r *models.SubmitVoteRequest) { r.CandidateID = "" }, voting.KindInvalidInput},
		{"unknown candidate", role.ID, func(r *models.SubmitVoteRequest) { r.CandidateID = "7" }, voting.KindInvalidInput},
		{"lowercase choice", role.ID, func(r *models.SubmitVoteRequest) { r.Choice = "inclined" }, voting.KindInvalidInput},
		{"blank feedback", role.ID, func(r *models.SubmitVoteRequest) { r.Feedback = " \n" }, voting.KindInvalidInput},
		{"unauthorized before bad choice", role.ID, func(r *models.SubmitVoteRequest) {
			r.Voter = "c@x.com"
			r.Choice = "maybe"
		}, voting.KindForbidden},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := valid
			tt.mutate(&req)
			_, err := s.svc.SubmitVote(s.ctx, tt.roleID, req)
			s.requireKind(err, tt.want)
		})
	}

	n, err := s.store.CountVotes(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Zero(n)
	s.Equal(float64(len(tests)), prom.ToFloat64(s.metrics.VotesSubmitted.WithLabelValues(metrics.OutcomeRejected)))
}

func (s *ServiceSuite) TestVoterAuthorizationIsCaseInsensitive() {
	role := s.newRole()

	res, err := s.svc.SubmitVote(s.ctx, role.ID, models.SubmitVoteRequest{
		Voter: " A@X.com ", CandidateID: "1", Choice: models.ChoiceInclined, Feedback: "ok",
	})
	s.Require().NoError(err)
	s.False(res.Updated)

	res, err = s.svc.SubmitVote(s.ctx, role.ID, models.SubmitVoteRequest{
		Voter: "a@x.com", CandidateID: "1", Choice: models.ChoiceInclined, Feedback: "ok",
	})
	s.Require().NoError(err)
	s.True(res.Updated, "same voter after normalization")

	progress, err := s.svc.GetVoterProgress(s.ctx, role.ID, "A@X.COM")
	s.Require().NoError(err)
	s.True(progress.Authorized)
	s.Equal(1, progress.Submitted)
}

func (s *ServiceSuite) TestVotingClosedOnceRoleLeavesActive() {
	role := s.newRole()
	s.vote(role.ID, "a@x.com", "1", models.ChoiceInclined)

	fulfilled := models.StatusFulfilled
	_, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{Status: &fulfilled})
	s.Require().NoError(err)

	_, err = s.svc.SubmitVote(s.ctx, role.ID, models.SubmitVoteRequest{
		Voter: "a@x.com", CandidateID: "1", Choice: models.ChoiceNotInclined, Feedback: "too late",
	})
	s.requireKind(err, voting.KindConflict)

	votes, err := s.store.ListVotes(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Require().Len(votes, 1)
	s.Equal(models.ChoiceInclined, votes[0].Choice)
}

func (s *ServiceSuite) TestGetVoterProgress() {
	role := s.newRole()
	s.vote(role.ID, "b@x.com", "2", models.ChoiceNotInclined)

	progress, err := s.svc.GetVoterProgress(s.ctx, role.ID, "b@x.com")
	s.Require().NoError(err)
	s.True(progress.Authorized)
	s.Equal(1, progress.Submitted)
	s.Equal(2, progress.Total)
	s.Require().Len(progress.Candidates, 2)
	s.False(progress.Candidates[0].Voted)
	s.Nil(progress.Candidates[0].Timestamp)
	s.True(progress.Candidates[1].Voted)
	s.Equal(models.ChoiceNotInclined, progress.Candidates[1].Choice)
	s.NotNil(progress.Candidates[1].Timestamp)

	s.Run("unknown email", func() {
		progress, err := s.svc.GetVoterProgress(s.ctx, role.ID, "stranger@x.com")
		s.Require().NoError(err)
		s.False(progress.Authorized)
		s.Zero(progress.Submitted)
		s.Len(progress.Candidates, 2)
	})

	s.Run("empty email", func() {
		_, err := s.svc.GetVoterProgress(s.ctx, role.ID, " ")
		s.requireKind(err, voting.KindInvalidInput)
	})

	s.Run("unknown role", func() {
		_, err := s.svc.GetVoterProgress(s.ctx, "missing", "a@x.com")
		s.requireKind(err, voting.KindNotFound)
	})
}

func (s *ServiceSuite) TestGetStatus() {
	role := s.newRole()

	status, err := s.svc.GetStatus(s.ctx, role.ID)
	s.Require().NoError(err)
	s.False(status.VotingLocked)
	s.Equal(4, status.VotesNeeded)

	s.vote(role.ID, "a@x.com", "1", models.ChoiceInclined)
	s.vote(role.ID, "a@x.com", "2", models.ChoiceInclined)
	s.vote(role.ID, "b@x.com", "1", models.ChoiceInclined)

	status, err = s.svc.GetStatus(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, status.Status)
	s.Equal(3, status.VotesReceived)
	s.False(status.Complete)
	s.Equal(2, status.VotersTotal)
	s.Equal(1, status.VotersFinished)
	s.Equal(2, status.CandidatesTotal)
	s.True(status.VotingLocked)

	_, err = s.svc.GetStatus(s.ctx, "missing")
	s.requireKind(err, voting.KindNotFound)
}

func (s *ServiceSuite) TestUpdateRoleCandidates() {
	s.Run("without votes the list is replaced and renumbered", func() {
		role := s.newRole()
		updated, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			Candidates: []models.CandidateInput{{ID: "2", Name: "Bob"}, {Name: "Carol"}},
		})
		s.Require().NoError(err)
		s.Equal([]models.Candidate{{ID: "1", Name: "Bob"}, {ID: "2", Name: "Carol"}}, updated.Candidates)
		s.Equal(2, updated.CandidateSeq)
	})

	s.Run("with votes ids are kept and new ids continue", func() {
		role := s.newRole()
		s.vote(role.ID, "a@x.com", "1", models.ChoiceInclined)

		updated, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			Candidates: []models.CandidateInput{{ID: "1", Name: "Alice Smith"}, {Name: "Carol"}},
		})
		s.Require().NoError(err)
		s.Equal([]models.Candidate{{ID: "1", Name: "Alice Smith"}, {ID: "3", Name: "Carol"}}, updated.Candidates)
		s.Equal(3, updated.CandidateSeq)

		// Bob's id 2 is never handed out again
		updated, err = s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			Candidates: []models.CandidateInput{{ID: "1", Name: "Alice Smith"}, {ID: "3", Name: "Carol"}, {Name: "Dan"}},
		})
		s.Require().NoError(err)
		s.Equal("4", updated.Candidates[2].ID)
	})

	s.Run("removing a voted candidate is a conflict and changes nothing", func() {
		role := s.newRole()
		s.vote(role.ID, "a@x.com", "2", models.ChoiceNotInclined)
		position := "Renamed"

		_, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			Position:   &position,
			Candidates: models.CandidateNames("Alice", "Carol"),
		})
		s.requireKind(err, voting.KindConflict)

		stored, err := s.svc.GetRole(s.ctx, role.ID)
		s.Require().NoError(err)
		s.Equal("Backend Engineer", stored.Position)
		s.Equal(role.Candidates, stored.Candidates)
	})

	s.Run("duplicate ids rejected", func() {
		role := s.newRole()
		s.vote(role.ID, "a@x.com", "1", models.ChoiceInclined)
		_, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			Candidates: []models.CandidateInput{{ID: "1", Name: "A"}, {ID: "1", Name: "B"}},
		})
		s.requireKind(err, voting.KindInvalidInput)
	})

	s.Run("blank list rejected", func() {
		role := s.newRole()
		_, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			Candidates: models.CandidateNames(" "),
		})
		s.requireKind(err, voting.KindInvalidInput)
	})
}

func (s *ServiceSuite) TestUpdateRoleVoters() {
	role := s.newRole()
	s.vote(role.ID, "a@x.com", "1", models.ChoiceInclined)

	s.Run("adding voters is free", func() {
		updated, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			AllowedEmails: []string{"a@x.com", "b@x.com", " C@x.com "},
		})
		s.Require().NoError(err)
		s.Equal([]string{"a@x.com", "b@x.com", "c@x.com"}, updated.AllowedEmails)
	})

	s.Run("removing a voter without votes is allowed", func() {
		updated, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			AllowedEmails: []string{"a@x.com", "c@x.com"},
		})
		s.Require().NoError(err)
		s.Equal([]string{"a@x.com", "c@x.com"}, updated.AllowedEmails)
	})

	s.Run("removing a voter with votes is a conflict", func() {
		_, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			AllowedEmails: []string{"c@x.com"},
		})
		s.requireKind(err, voting.KindConflict)
	})

	s.Run("blank list leaves voters unchanged", func() {
		updated, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			AllowedEmails: []string{"", "  "},
		})
		s.Require().NoError(err)
		s.Equal([]string{"a@x.com", "c@x.com"}, updated.AllowedEmails)
	})

	s.Run("too many voters", func() {
		_, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
			AllowedEmails: []string{"a@x.com", "2@x.com", "3@x.com", "4@x.com", "5@x.com", "6@x.com"},
		})
		s.requireKind(err, voting.KindInvalidInput)
	})
}

func (s *ServiceSuite) TestUpdateRoleStatus() {
	str := func(v string) *string { return &v }

	tests := []struct {
		name     string
		path     []string
		wantErr  bool
		wantLast string
	}{
		{"active to fulfilled", []string{models.StatusFulfilled}, false, models.StatusFulfilled},
		{"active to expired", []string{models.StatusExpired}, false, models.StatusExpired},
		{"fulfilled to expired", []string{models.StatusFulfilled, models.StatusExpired}, false, models.StatusExpired},
		{"same status is a no-op", []string{models.StatusActive}, false, models.StatusActive},
		{"unknown status ignored", []string{"archived"}, false, models.StatusActive},
		{"reactivation rejected", []string{models.StatusExpired, models.StatusActive}, true, models.StatusExpired},
		{"expired to fulfilled rejected", []string{models.StatusExpired, models.StatusFulfilled}, true, models.StatusExpired},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			role := s.newRole()
			var err error
			for _, st := range tt.path {
				_, err = s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{Status: str(st)})
			}
			if tt.wantErr {
				s.requireKind(err, voting.KindConflict)
			} else {
				s.Require().NoError(err)
			}
			stored, err := s.svc.GetRole(s.ctx, role.ID)
			s.Require().NoError(err)
			s.Equal(tt.wantLast, stored.Status)
		})
	}
}

func (s *ServiceSuite) TestUpdateRoleFields() {
	role := s.newRole()
	blank, position, manager, override := "  ", "Lead Engineer", "HM@x.com", true

	updated, err := s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{Position: &blank})
	s.Require().NoError(err)
	s.Equal("Backend Engineer", updated.Position)

	updated, err = s.svc.UpdateRole(s.ctx, role.ID, models.UpdateRoleRequest{
		Position:             &position,
		HiringManager:        &manager,
		AllowResultsOverride: &override,
	})
	s.Require().NoError(err)
	s.Equal("Lead Engineer", updated.Position)
	s.Equal("hm@x.com", updated.HiringManager)
	s.True(updated.AllowResultsOverride)
	s.True(updated.UpdatedAt.After(role.UpdatedAt))

	_, err = s.svc.UpdateRole(s.ctx, "missing", models.UpdateRoleRequest{Position: &position})
	s.requireKind(err, voting.KindNotFound)
}

// Scenario D
func (s *ServiceSuite) TestDeleteRole() {
	role := s.newRole()
	s.vote(role.ID, "a@x.com", "1", models.ChoiceInclined)

	err := s.svc.DeleteRole(s.ctx, role.ID)
	s.requireKind(err, voting.KindConflict)
	s.Contains(voting.MessageOf(err), "expired")

	stored, err := s.svc.GetRole(s.ctx, role.ID)
	s.Require().NoError(err)
	s.Equal(role.Candidates, stored.Candidates)
	n, _ := s.store.CountVotes(s.ctx, role.ID)
	s.Equal(1, n)

	empty := s.newRole()
	s.NoError(s.svc.DeleteRole(s.ctx, empty.ID))
	_, err = s.svc.GetRole(s.ctx, empty.ID)
	s.requireKind(err, voting.KindNotFound)

	s.requireKind(s.svc.DeleteRole(s.ctx, empty.ID), voting.KindNotFound)
}

func (s *ServiceSuite) TestListRoles() {
	first := s.newRole()
	second := s.newRole()
	s.vote(first.ID, "a@x.com", "1", models.ChoiceInclined)
	s.vote(first.ID, "a@x.com", "2", models.ChoiceInclined)

	expired := models.StatusExpired
	_, err := s.svc.UpdateRole(s.ctx, second.ID, models.UpdateRoleRequest{Status: &expired})
	s.Require().NoError(err)

	all, err := s.svc.ListRoles(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID)
	s.Equal(2, all[0].VotesReceived)
	s.Equal(4, all[0].VotesNeeded)
	s.Equal(1, all[0].VotersFinished)
	s.False(all[0].Complete)

	active, err := s.svc.ListRoles(s.ctx, models.StatusActive)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(first.ID, active[0].ID)

	unknown, err := s.svc.ListRoles(s.ctx, "archived")
	s.Require().NoError(err)
	s.Empty(unknown)
}

// TestConcurrentVotes checks that parallel submissions on distinct keys are
// all kept and that racing resubmissions on one key leave a single vote.
func (s *ServiceSuite) TestConcurrentVotes() {
	voters := []string{"1@x.com", "2@x.com", "3@x.com", "4@x.com", "5@x.com"}
	role, err := s.svc.CreateRole(s.ctx, models.CreateRoleRequest{
		Position:      "Concurrent",
		Candidates:    models.CandidateNames("A", "B", "C"),
		AllowedEmails: voters,
	})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for _, voter := range voters {
		for _, c := range role.Candidates {
			for range 3 {
				wg.Add(1)
				go func(voter, candidateID string) {
					defer wg.Done()
					_, err := s.svc.SubmitVote(s.ctx, role.ID, models.SubmitVoteRequest{
						Voter: voter, CandidateID: candidateID, Choice: models.ChoiceInclined, Feedback: "ok",
					})
					if err != nil {
						failures.Add(1)
					}
				}(voter, c.ID)
			}
		}
	}
	wg.Wait()

	s.Zero(failures.Load())
	results, err := s.svc.GetResults(s.ctx, role.ID)
	s.Require().NoError(err)
	s.True(results.Complete)
	s.Equal(15, results.TotalVotes)
}

// racingStore runs beforeWrite ahead of the next UpsertVote, standing in for
// a role update that lands between validation and the write.
type racingStore struct {
	*memstore.Store
	beforeWrite func()
}

func (r *racingStore) UpsertVote(ctx context.Context, vote *models.Vote, guard store.VoteGuard) (bool, error) {
	if hook := r.beforeWrite; hook != nil {
		r.beforeWrite = nil
		hook()
	}
	return r.Store.UpsertVote(ctx, vote, guard)
}

func (s *ServiceSuite) TestVoteRacingRoleUpdate() {
	fulfilled := models.StatusFulfilled
	tests := []struct {
		name   string
		update models.UpdateRoleRequest
		want   voting.Kind
	}{
		{"voter removed", models.UpdateRoleRequest{AllowedEmails: []string{"a@x.com", "b@x.com"}}, voting.KindForbidden},
		{"role fulfilled", models.UpdateRoleRequest{Status: &fulfilled}, voting.KindConflict},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			st := &racingStore{Store: memstore.New()}
			svc := voting.New(st, voting.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

			role, err := svc.CreateRole(s.ctx, models.CreateRoleRequest{
				Position:      "Platform Engineer",
				Candidates:    models.CandidateNames("Alice"),
				AllowedEmails: []string{"a@x.com", "b@x.com", "c@x.com"},
			})
			s.Require().NoError(err)
			_, err = svc.SubmitVote(s.ctx, role.ID, models.SubmitVoteRequest{
				Voter: "a@x.com", CandidateID: "1", Choice: models.ChoiceInclined, Feedback: "ok",
			})
			s.Require().NoError(err)

			st.beforeWrite = func() {
				_, err := svc.UpdateRole(s.ctx, role.ID, tt.update)
				s.Require().NoError(err)
			}
			_, err = svc.SubmitVote(s.ctx, role.ID, models.SubmitVoteRequest{
				Voter: "c@x.com", CandidateID: "1", Choice: models.ChoiceInclined, Feedback: "late",
			})
			s.requireKind(err, tt.want)

			votes, err := st.ListVotes(s.ctx, role.ID)
			s.Require().NoError(err)
			s.Require().Len(votes, 1)
			s.Equal("a@x.com", votes[0].Voter)

			results, err := svc.GetResults(s.ctx, role.ID)
			s.Require().NoError(err)
			s.False(results.Complete)
			s.Empty(results.Candidates)
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &voting.Error{Kind: voting.KindForbidden, Message: "no"})

	tests := []struct {
		name string
		err  error
		want voting.Kind
		msg  string
	}{
		{"service error", &voting.Error{Kind: voting.KindConflict, Message: "busy"}, voting.KindConflict, "busy"},
		{"wrapped", wrapped, voting.KindForbidden, "no"},
		{"plain error", errors.New("boom"), voting.KindInternal, "internal error"},
		{"internal hides message", &voting.Error{Kind: voting.KindInternal, Message: "db password wrong"}, voting.KindInternal, "internal error"},
		{"store sentinel", store.ErrNotFound, voting.KindInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := voting.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
			if got := voting.MessageOf(tt.err); got != tt.msg {
				t.Errorf("MessageOf() = %q, want %q", got, tt.msg)
			}
		})
	}
}
