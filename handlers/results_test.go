// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/testutil"
)

func getResults(t *testing.T, handler *ResultsHandler, roleID string) (*httptest.ResponseRecorder, models.ResultsView) {
	t.Helper()
	req := httptest.NewRequest("GET", "/roles/"+roleID+"/results", nil)
	req.SetPathValue("id", roleID)
	w := httptest.NewRecorder()
	handler.GetResults(w, req)

	var view models.ResultsView
	if w.Code == http.StatusOK {
		testutil.AssertJSON(t, w, &view)
	}
	return w, view
}

func TestGetResultsSealedUntilComplete(t *testing.T) {
	svc := testutil.SetupTestService(t)
	handler := NewResultsHandler(svc)
	role := testutil.CreateTestRole(t, svc, "Backend Engineer", "Ada", "Grace")

	testutil.SubmitTestVote(t, svc, role.ID, "alice@example.com", "1", models.ChoiceInclined)
	testutil.SubmitTestVote(t, svc, role.ID, "alice@example.com", "2", models.ChoiceNotInclined)
	testutil.SubmitTestVote(t, svc, role.ID, "bob@example.com", "1", models.ChoiceInclined)

	w, view := getResults(t, handler, role.ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	if view.Complete {
		t.Error("Expected incomplete results")
	}
	if view.Candidates != nil {
		t.Errorf("Expected no candidate tallies, got %+v", view.Candidates)
	}
	if view.VotesReceived != 3 || view.VotesNeeded != 4 {
		t.Errorf("Expected 3/4 votes, got %d/%d", view.VotesReceived, view.VotesNeeded)
	}
	if view.Message != "Waiting for 1 more vote(s)" {
		t.Errorf("Unexpected message %q", view.Message)
	}

	testutil.SubmitTestVote(t, svc, role.ID, "bob@example.com", "2", models.ChoiceInclined)

	w, view = getResults(t, handler, role.ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !view.Complete || view.EarlyDisclosure {
		t.Errorf("Expected complete results without early flag, got complete=%v early=%v", view.Complete, view.EarlyDisclosure)
	}
	if view.TotalVotes != 4 {
		t.Errorf("Expected 4 total votes, got %d", view.TotalVotes)
	}
	if len(view.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(view.Candidates))
	}
	ada, grace := view.Candidates[0], view.Candidates[1]
	if ada.Inclined != 2 || ada.NotInclined != 0 {
		t.Errorf("Ada: expected 2/0, got %d/%d", ada.Inclined, ada.NotInclined)
	}
	if grace.Inclined != 1 || grace.NotInclined != 1 {
		t.Errorf("Grace: expected 1/1, got %d/%d", grace.Inclined, grace.NotInclined)
	}
	if len(ada.Votes) != 2 || ada.Votes[0].Feedback == "" {
		t.Errorf("Expected Ada's votes with feedback, got %+v", ada.Votes)
	}
}

func TestGetResultsWithOverride(t *testing.T) {
	svc := testutil.SetupTestService(t)
	handler := NewResultsHandler(svc)
	role := testutil.CreateTestRole(t, svc, "Backend Engineer", "Ada")

	override := true
	if _, err := svc.UpdateRole(context.Background(), role.ID, models.UpdateRoleRequest{AllowResultsOverride: &override}); err != nil {
		t.Fatalf("Failed to enable override: %v", err)
	}
	testutil.SubmitTestVote(t, svc, role.ID, "alice@example.com", "1", models.ChoiceNotInclined)

	w, view := getResults(t, handler, role.ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	if view.Complete {
		t.Error("Expected incomplete results")
	}
	if !view.EarlyDisclosure {
		t.Error("Expected early_disclosure")
	}
	if len(view.Candidates) != 1 || view.Candidates[0].NotInclined != 1 {
		t.Errorf("Expected tally with 1 not inclined, got %+v", view.Candidates)
	}
}

func TestGetResultsForUnknownRole(t *testing.T) {
	svc := testutil.SetupTestService(t)
	handler := NewResultsHandler(svc)

	w, _ := getResults(t, handler, "nope")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetStatus(t *testing.T) {
	svc := testutil.SetupTestService(t)
	handler := NewResultsHandler(svc)
	role := testutil.CreateTestRole(t, svc, "Backend Engineer", "Ada", "Grace")

	tests := []struct {
		name           string
		votes          [][2]string
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.StatusView)
	}{
		{
			name:           "no votes",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *models.StatusView) {
				if resp.VotesReceived != 0 || resp.VotesNeeded != 4 {
					t.Errorf("Expected 0/4, got %d/%d", resp.VotesReceived, resp.VotesNeeded)
				}
				if resp.VotingLocked {
					t.Error("Expected voting_locked=false")
				}
				if resp.VotersTotal != 2 || resp.CandidatesTotal != 2 {
					t.Errorf("Expected 2 voters and 2 candidates, got %d and %d", resp.VotersTotal, resp.CandidatesTotal)
				}
			},
		},
		{
			name:           "one voter finished",
			votes:          [][2]string{{"alice@example.com", "1"}, {"alice@example.com", "2"}},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *models.StatusView) {
				if resp.VotesReceived != 2 || resp.VotersFinished != 1 {
					t.Errorf("Expected 2 votes and 1 voter finished, got %d and %d", resp.VotesReceived, resp.VotersFinished)
				}
				if !resp.VotingLocked {
					t.Error("Expected voting_locked=true")
				}
				if resp.Complete {
					t.Error("Expected incomplete")
				}
			},
		},
		{
			name:           "all voters finished",
			votes:          [][2]string{{"bob@example.com", "1"}, {"bob@example.com", "2"}},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *models.StatusView) {
				if !resp.Complete || resp.VotersFinished != 2 {
					t.Errorf("Expected complete with 2 voters finished, got complete=%v finished=%d", resp.Complete, resp.VotersFinished)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range tt.votes {
				testutil.SubmitTestVote(t, svc, role.ID, v[0], v[1], models.ChoiceInclined)
			}

			req := httptest.NewRequest("GET", "/roles/"+role.ID+"/status", nil)
			req.SetPathValue("id", role.ID)
			w := httptest.NewRecorder()

			handler.GetStatus(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			var resp models.StatusView
			testutil.AssertJSON(t, w, &resp)
			tt.checkResponse(t, &resp)
		})
	}
}
