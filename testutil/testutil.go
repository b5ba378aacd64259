// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielhkuo/hirevote/cliparse"
	"github.com/danielhkuo/hirevote/db"
	"github.com/danielhkuo/hirevote/metrics"
	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store/sqlstore"
	"github.com/danielhkuo/hirevote/voting"
)

// TestAdminKey is the admin key used by GetTestConfig
const TestAdminKey = "test-admin-key"

// TestVoters is the default allow-list for CreateTestRole
var TestVoters = []string{"alice@example.com", "bob@example.com"}

// SetupTestService returns a service backed by a fresh SQLite database in a
// temp dir. The store is closed when the test ends.
func SetupTestService(t *testing.T) *voting.Service {
	t.Helper()
	svc, _ := SetupTestServiceWithMetrics(t)
	return svc
}

// SetupTestServiceWithMetrics is SetupTestService plus the metrics instance
// the service reports to.
func SetupTestServiceWithMetrics(t *testing.T) (*voting.Service, *metrics.Metrics) {
	t.Helper()

	url := "file:" + filepath.Join(t.TempDir(), "hirevote.db")
	st, err := sqlstore.Open(context.Background(), db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	svc := voting.New(st,
		voting.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		voting.WithMetrics(m),
		voting.WithEmailSalt("test-email-salt"),
	)
	return svc, m
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         cliparse.DefaultPort,
		DatabaseType: cliparse.DatabaseSQLite,
		DatabaseURL:  "file::memory:",
		DataDir:      cliparse.DefaultDataDir,
		AdminKey:     TestAdminKey,
		LogLevel:     slog.LevelInfo,
	}
}

// CreateTestRole creates an active role with TestVoters and the given
// candidate names. Candidate ids are "1", "2", ...
func CreateTestRole(t *testing.T, svc *voting.Service, position string, candidates ...string) *models.Role {
	t.Helper()

	role, err := svc.CreateRole(context.Background(), models.CreateRoleRequest{
		Position:      position,
		Candidates:    models.CandidateNames(candidates...),
		AllowedEmails: TestVoters,
	})
	if err != nil {
		t.Fatalf("Failed to create test role: %v", err)
	}
	return role
}

// SubmitTestVote records a vote with stock feedback and fails the test on error
func SubmitTestVote(t *testing.T, svc *voting.Service, roleID, voter, candidateID, choice string) *models.VoteResult {
	t.Helper()

	result, err := svc.SubmitVote(context.Background(), roleID, models.SubmitVoteRequest{
		Voter:       voter,
		CandidateID: candidateID,
		Choice:      choice,
		Feedback:    "Solid interview.",
	})
	if err != nil {
		t.Fatalf("Failed to submit test vote: %v", err)
	}
	return result
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
