// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/voting"
)

const (
	LegacyConfigFile = "config.json"
	LegacyVotesFile  = "votes.json"
)

// LegacyFeedback fills the feedback of imported votes, which never had any.
const LegacyFeedback = "(imported vote, no feedback recorded)"

var ErrLegacyNotConfigured = errors.New("legacy config was never configured")

type legacyConfig struct {
	Position      string                  `json:"position"`
	CandidateName string                  `json:"candidate_name"`
	Candidates    []models.CandidateInput `json:"candidates"`
	AllowedEmails []string                `json:"allowed_emails"`
	IsConfigured  bool                    `json:"is_configured"`
}

type legacyVote struct {
	Voter       string `json:"voter"`
	CandidateID string `json:"candidate_id"`
	Choice      string `json:"choice"`
	Feedback    string `json:"feedback"`
	Timestamp   string `json:"timestamp"`
}

type legacyVotes struct {
	Votes []legacyVote `json:"votes"`
}

// Timestamps were written both with and without a UTC offset.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseLegacyTime(s string) (time.Time, bool) {
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func readLegacy(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// legacyRole builds the role described by a legacy config.
func legacyRole(cfg legacyConfig, now time.Time) (*models.Role, error) {
	if !cfg.IsConfigured {
		return nil, ErrLegacyNotConfigured
	}

	role := &models.Role{
		ID:        uuid.NewString(),
		Position:  strings.TrimSpace(cfg.Position),
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role.Position == "" {
		return nil, errors.New("legacy config has no position")
	}

	inputs := cfg.Candidates
	if len(inputs) == 0 && strings.TrimSpace(cfg.CandidateName) != "" {
		inputs = []models.CandidateInput{{ID: "1", Name: cfg.CandidateName}}
	}
	seen := make(map[string]bool)
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		id := strings.TrimSpace(in.ID)
		if id == "" || seen[id] {
			id = strconv.Itoa(max(len(role.Candidates), role.MaxCandidateID()) + 1)
		}
		seen[id] = true
		role.Candidates = append(role.Candidates, models.Candidate{ID: id, Name: name})
	}
	if len(role.Candidates) == 0 {
		return nil, errors.New("legacy config has no candidates")
	}
	role.CandidateSeq = role.MaxCandidateID()

	for _, e := range cfg.AllowedEmails {
		e = voting.NormalizeEmail(e)
		if e != "" && !role.IsAllowed(e) {
			role.AllowedEmails = append(role.AllowedEmails, e)
		}
	}
	if len(role.AllowedEmails) == 0 {
		return nil, errors.New("legacy config has no allowed emails")
	}

	return role, nil
}

// ImportLegacy creates one role from dir/config.json and copies the votes in
// dir/votes.json onto it. Votes from voters outside the allow-list, with an
// unknown candidate or an invalid choice are skipped and counted.
func (m *Migrator) ImportLegacy(ctx context.Context, dir string) (*models.Role, Report, error) {
	var report Report

	var cfg legacyConfig
	if err := readLegacy(filepath.Join(dir, LegacyConfigFile), &cfg); err != nil {
		return nil, report, err
	}
	var votes legacyVotes
	if err := readLegacy(filepath.Join(dir, LegacyVotesFile), &votes); err != nil {
		return nil, report, err
	}

	now := m.now()
	role, err := legacyRole(cfg, now)
	if err != nil {
		return nil, report, err
	}
	if err := m.dst.CreateRole(ctx, role); err != nil {
		return nil, report, fmt.Errorf("failed to create role: %w", err)
	}
	report.Roles = 1
	report.Candidates = len(role.Candidates)

	for i, lv := range votes.Votes {
		vote, reason := legacyVoteFor(role, lv, now)
		if reason != "" {
			m.logger.WarnContext(ctx, "skipping legacy vote", "index", i, "reason", reason)
			report.Skipped++
			continue
		}
		updated, err := m.dst.UpsertVote(ctx, vote, nil)
		if err != nil {
			return role, report, fmt.Errorf("failed to write vote %d: %w", i, err)
		}
		if !updated {
			report.Votes++
		}
	}

	m.logger.InfoContext(ctx, "legacy data imported",
		"role_id", role.ID,
		"candidates", report.Candidates,
		"votes", report.Votes,
		"skipped", report.Skipped,
	)
	return role, report, nil
}

// legacyVoteFor converts lv, or returns why it cannot be imported.
func legacyVoteFor(role *models.Role, lv legacyVote, now time.Time) (*models.Vote, string) {
	voter := voting.NormalizeEmail(lv.Voter)
	if !role.IsAllowed(voter) {
		return nil, "voter not allowed"
	}
	if !models.IsValidChoice(lv.Choice) {
		return nil, "invalid choice"
	}

	candidateID := strings.TrimSpace(lv.CandidateID)
	if candidateID == "" {
		candidateID = "1"
	}
	candidate, ok := role.Candidate(candidateID)
	if !ok {
		return nil, "unknown candidate"
	}

	ts, ok := parseLegacyTime(lv.Timestamp)
	if !ok {
		ts = now
	}
	feedback := strings.TrimSpace(lv.Feedback)
	if feedback == "" {
		feedback = LegacyFeedback
	}

	return &models.Vote{
		Voter:         voter,
		RoleID:        role.ID,
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		RolePosition:  role.Position,
		Choice:        lv.Choice,
		Feedback:      feedback,
		Timestamp:     ts,
	}, ""
}
