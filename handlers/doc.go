// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the hirevote API.

# Handler Types

Each handler is a thin struct around the voting service:

  - RoleHandler: Role registry (create, list, get, update, delete)
  - VotingHandler: Vote submission and per-voter progress
  - ResultsHandler: Gated results and completeness status

Handlers are created via constructor functions that accept *voting.Service:

	roleHandler := handlers.NewRoleHandler(svc)

# Role Registry

	POST   /roles           → CreateRole (201)
	GET    /roles?status=   → ListRoles
	GET    /roles/{id}      → GetRole
	PUT    /roles/{id}      → UpdateRole
	DELETE /roles/{id}      → DeleteRole (409 once votes exist)

Write operations are guarded by the router with the X-Admin-Key header.

# Voting Flow

Voters identify themselves by email, matched case-insensitively against
the role's allow-list:

	POST /roles/{id}/votes             → SubmitVote (201 new, 200 updated)
	GET  /roles/{id}/progress?voter=   → GetProgress

# Results

	GET /roles/{id}/results → GetResults
	GET /roles/{id}/status  → GetStatus

Results carry tallies and feedback only once every allowed voter has voted
on every candidate, or when the role has allow_results_override set.

# Errors

Service errors map to 404, 403, 400, 409 or 500 by kind. Internal errors
are logged and answered with a generic message.
*/
package handlers
