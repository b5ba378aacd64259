// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the hirevote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, cfg, m)

# Endpoints

Health and monitoring:

	GET /health
	GET /metrics

Role management (admin, requires X-Admin-Key):

	POST   /roles      - Create role
	PUT    /roles/{id} - Update role
	DELETE /roles/{id} - Delete role without votes

Role browsing (public):

	GET /roles?status= - List roles with progress
	GET /roles/{id}    - Role details

Voting (public, voter identified by email):

	POST /roles/{id}/votes           - Submit or update a vote
	GET  /roles/{id}/progress?voter= - Voter's own progress

Results (public):

	GET /roles/{id}/results - Tallies, sealed until complete
	GET /roles/{id}/status  - Completeness counters

Every API route is wrapped with request logging and request-duration
metrics.
*/
package router
