// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/hirevote/cliparse"
	"github.com/danielhkuo/hirevote/handlers"
	"github.com/danielhkuo/hirevote/metrics"
	"github.com/danielhkuo/hirevote/middleware"
	"github.com/danielhkuo/hirevote/voting"
)

func NewRouter(svc *voting.Service, cfg cliparse.Config, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	roleHandler := handlers.NewRoleHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc)

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithMetrics(m, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return public(middleware.RequireAdminKey(cfg.AdminKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus exposition
	mux.Handle("GET /metrics", m.Handler())

	// Role management (admin operations)
	mux.HandleFunc("POST /roles", admin(roleHandler.CreateRole))
	mux.HandleFunc("PUT /roles/{id}", admin(roleHandler.UpdateRole))
	mux.HandleFunc("DELETE /roles/{id}", admin(roleHandler.DeleteRole))

	// Role browsing (public)
	mux.HandleFunc("GET /roles", public(roleHandler.ListRoles))
	mux.HandleFunc("GET /roles/{id}", public(roleHandler.GetRole))

	// Voting operations (public, voter identified by email)
	mux.HandleFunc("POST /roles/{id}/votes", public(votingHandler.SubmitVote))
	mux.HandleFunc("GET /roles/{id}/progress", public(votingHandler.GetProgress))

	// Results retrieval (public, sealed until complete)
	mux.HandleFunc("GET /roles/{id}/results", public(resultsHandler.GetResults))
	mux.HandleFunc("GET /roles/{id}/status", public(resultsHandler.GetStatus))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hirevote API v1"))
	})

	return mux
}
