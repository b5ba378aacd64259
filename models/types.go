// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"strconv"
	"time"
)

// Role status constants
const (
	StatusActive    = "active"
	StatusFulfilled = "fulfilled"
	StatusExpired   = "expired"
)

// Vote choices, as stored and as accepted on the wire
const (
	ChoiceInclined    = "Inclined"
	ChoiceNotInclined = "Not Inclined"
)

// Voter allow-list bounds
const (
	MinVoters = 1
	MaxVoters = 5
)

// IsValidStatus reports whether s is one of the known role statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusFulfilled, StatusExpired:
		return true
	}
	return false
}

// IsValidChoice reports whether c is exactly one of the two accepted choices.
func IsValidChoice(c string) bool {
	return c == ChoiceInclined || c == ChoiceNotInclined
}

// Domain types

type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Role struct {
	ID                   string      `json:"id"`
	Position             string      `json:"position"`
	Candidates           []Candidate `json:"candidates"`
	AllowedEmails        []string    `json:"allowed_emails"`
	Status               string      `json:"status"`
	HiringManager        string      `json:"hiring_manager,omitempty"`
	AllowResultsOverride bool        `json:"allow_results_override"`
	CandidateSeq         int         `json:"candidate_seq"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// Candidate returns the candidate with the given id.
func (r *Role) Candidate(id string) (Candidate, bool) {
	for _, c := range r.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// IsAllowed reports whether the normalized email is on the allow-list.
func (r *Role) IsAllowed(email string) bool {
	for _, e := range r.AllowedEmails {
		if e == email {
			return true
		}
	}
	return false
}

// ExpectedVotes is the number of votes needed for the role to be complete.
func (r *Role) ExpectedVotes() int {
	return len(r.AllowedEmails) * len(r.Candidates)
}

// MaxCandidateID returns the largest numeric candidate id, ignoring ids that
// are not numbers.
func (r *Role) MaxCandidateID() int {
	n := 0
	for _, c := range r.Candidates {
		if v, err := strconv.Atoi(c.ID); err == nil && v > n {
			n = v
		}
	}
	return n
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (r *Role) Clone() *Role {
	c := *r
	c.Candidates = append([]Candidate(nil), r.Candidates...)
	c.AllowedEmails = append([]string(nil), r.AllowedEmails...)
	return &c
}

type Vote struct {
	Voter         string    `json:"voter"`
	RoleID        string    `json:"role_id"`
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	RolePosition  string    `json:"role_position"`
	Choice        string    `json:"choice"`
	Feedback      string    `json:"feedback"`
	Timestamp     time.Time `json:"timestamp"`
}

// Request types

type CreateRoleRequest struct {
	Position             string           `json:"position"`
	Candidates           []CandidateInput `json:"candidates"`
	AllowedEmails        []string         `json:"allowed_emails"`
	Status               string           `json:"status,omitempty"`
	HiringManager        string           `json:"hiring_manager,omitempty"`
	AllowResultsOverride bool             `json:"allow_results_override,omitempty"`
}

// Nil fields are left unchanged
type UpdateRoleRequest struct {
	Position             *string          `json:"position,omitempty"`
	Candidates           []CandidateInput `json:"candidates,omitempty"`
	AllowedEmails        []string         `json:"allowed_emails,omitempty"`
	Status               *string          `json:"status,omitempty"`
	HiringManager        *string          `json:"hiring_manager,omitempty"`
	AllowResultsOverride *bool            `json:"allow_results_override,omitempty"`
}

type SubmitVoteRequest struct {
	Voter       string `json:"voter"`
	CandidateID string `json:"candidate_id"`
	Choice      string `json:"choice"`
	Feedback    string `json:"feedback"`
}

// Response types

type RoleSummary struct {
	Role
	VotesReceived  int  `json:"votes_received"`
	VotesNeeded    int  `json:"votes_needed"`
	VotersFinished int  `json:"voters_finished"`
	Complete       bool `json:"complete"`
}

type VoteResult struct {
	Message                    string `json:"message"`
	Updated                    bool   `json:"updated"`
	VotesSubmittedForThisRole  int    `json:"votes_submitted_for_this_role"`
	TotalCandidatesForThisRole int    `json:"total_candidates_for_this_role"`
}

type CandidateStatus struct {
	CandidateID string     `json:"candidate_id"`
	Name        string     `json:"name"`
	Voted       bool       `json:"voted"`
	Choice      string     `json:"choice,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

type VoterProgress struct {
	RoleID     string            `json:"role_id"`
	Position   string            `json:"position"`
	Voter      string            `json:"voter"`
	Authorized bool              `json:"authorized"`
	Submitted  int               `json:"submitted"`
	Total      int               `json:"total"`
	Candidates []CandidateStatus `json:"candidates"`
}

type VoteDetail struct {
	Voter     string    `json:"voter"`
	Choice    string    `json:"choice"`
	Feedback  string    `json:"feedback"`
	Timestamp time.Time `json:"timestamp"`
}

type CandidateTally struct {
	CandidateID string       `json:"candidate_id"`
	Name        string       `json:"name"`
	Inclined    int          `json:"inclined"`
	NotInclined int          `json:"not_inclined"`
	Votes       []VoteDetail `json:"votes"`
}

// ResultsView is the gated results payload. While incomplete only the
// counters and message are set; Candidates stays nil.
type ResultsView struct {
	RoleID          string           `json:"role_id"`
	Position        string           `json:"position"`
	Complete        bool             `json:"complete"`
	VotesReceived   int              `json:"votes_received"`
	VotesNeeded     int              `json:"votes_needed"`
	Message         string           `json:"message,omitempty"`
	EarlyDisclosure bool             `json:"early_disclosure,omitempty"`
	TotalVotes      int              `json:"total_votes,omitempty"`
	Candidates      []CandidateTally `json:"candidates,omitempty"`
}

type StatusView struct {
	RoleID          string `json:"role_id"`
	Position        string `json:"position"`
	Status          string `json:"status"`
	VotesReceived   int    `json:"votes_received"`
	VotesNeeded     int    `json:"votes_needed"`
	Complete        bool   `json:"complete"`
	VotersTotal     int    `json:"voters_total"`
	VotersFinished  int    `json:"voters_finished"`
	CandidatesTotal int    `json:"candidates_total"`
	VotingLocked    bool   `json:"voting_locked"`
}

type DeleteRoleResponse struct {
	RoleID  string `json:"role_id"`
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
