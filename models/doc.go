// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateRoleRequest: position, candidates, allowed_emails, status, hiring_manager
  - UpdateRoleRequest: same fields as pointers / optional slices (partial update)
  - SubmitVoteRequest: voter, candidate_id, choice, feedback

Candidate entries accept either a bare string or an {"id","name"} object;
both decode into CandidateInput.

# Response Types

Types for JSON responses:

  - RoleSummary: role plus votes_received, votes_needed, complete
  - VoteResult: message, updated, per-voter progress counters
  - VoterProgress: per-candidate voted/unvoted state for one voter
  - ResultsView: gated tally (counters only until complete)
  - StatusView: counters that are always safe to expose
  - ErrorResponse: error, message

# Domain Types

  - Role: one hiring round with candidates and a voter allow-list
  - Candidate: id unique within its role, display name
  - Vote: one voter's judgment on one candidate

# Constants

Role status values:

	StatusActive    = "active"
	StatusFulfilled = "fulfilled"
	StatusExpired   = "expired"

Choices:

	ChoiceInclined    = "Inclined"
	ChoiceNotInclined = "Not Inclined"
*/
package models
