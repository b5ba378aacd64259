// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"strconv"
	"strings"

	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// cleanEmails normalizes and deduplicates emails, dropping blanks.
// Order of first appearance is kept.
func cleanEmails(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		email := NormalizeEmail(raw)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

// validateEmails returns the cleaned allow-list or an InvalidInput error.
func validateEmails(in []string) ([]string, error) {
	emails := cleanEmails(in)
	for _, email := range emails {
		// Weak check: an @ and a dot
		if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
			return nil, invalid("invalid email address: %s", email)
		}
	}
	if len(emails) < models.MinVoters {
		return nil, invalid("at least %d voter email is required", models.MinVoters)
	}
	if len(emails) > models.MaxVoters {
		return nil, invalid("at most %d voter emails are allowed, got %d", models.MaxVoters, len(emails))
	}
	return emails, nil
}

// cleanCandidates trims ids and names and drops entries without a name.
func cleanCandidates(in []models.CandidateInput) []models.CandidateInput {
	out := make([]models.CandidateInput, 0, len(in))
	for _, c := range in {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		out = append(out, models.CandidateInput{ID: strings.TrimSpace(c.ID), Name: name})
	}
	return out
}

// numberCandidates assigns ids "1".."n" in order.
func numberCandidates(in []models.CandidateInput) []models.Candidate {
	out := make([]models.Candidate, len(in))
	for i, c := range in {
		out[i] = models.Candidate{ID: strconv.Itoa(i + 1), Name: c.Name}
	}
	return out
}

// mergeCandidates applies a candidate list update to role.
//
// Without votes the list is replaced and renumbered from "1". With votes,
// entries whose id matches an existing candidate keep that id (the name may
// change), any other entry is a new candidate numbered after the role's
// high-water mark, and every candidate that has votes must still be present.
func mergeCandidates(role *models.Role, in []models.CandidateInput, votes store.VoteIndex) error {
	if votes.Total == 0 {
		role.Candidates = numberCandidates(in)
		role.CandidateSeq = len(role.Candidates)
		return nil
	}

	seq := max(role.CandidateSeq, role.MaxCandidateID())
	next := make([]models.Candidate, 0, len(in))
	kept := make(map[string]bool, len(in))
	for _, c := range in {
		if c.ID != "" {
			if kept[c.ID] {
				return invalid("duplicate candidate id %s", c.ID)
			}
			if _, ok := role.Candidate(c.ID); ok {
				kept[c.ID] = true
				next = append(next, models.Candidate{ID: c.ID, Name: c.Name})
				continue
			}
		}
		seq++
		next = append(next, models.Candidate{ID: strconv.Itoa(seq), Name: c.Name})
	}

	for _, existing := range role.Candidates {
		if votes.ByCandidate[existing.ID] > 0 && !kept[existing.ID] {
			return conflict("candidate %s (%s) has recorded votes and cannot be removed", existing.ID, existing.Name)
		}
	}

	role.Candidates = next
	role.CandidateSeq = seq
	return nil
}

// Allowed role status transitions. Same-status updates are no-ops and
// never reach this table.
var transitions = map[string][]string{
	models.StatusActive:    {models.StatusFulfilled, models.StatusExpired},
	models.StatusFulfilled: {models.StatusExpired},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
