// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Metrics

Record request duration by method and status code:

	mux.HandleFunc("GET /roles", middleware.WithMetrics(m, handler))

# Admin Key

Guard role-management routes with the configured admin key:

	mux.HandleFunc("POST /roles", middleware.RequireAdminKey(cfg.AdminKey, handler))

Missing or wrong X-Admin-Key returns 401.

# CORS Middleware

Grant cross-origin access to the configured frontends:

	server := http.Server{
		Handler: middleware.CORS(cfg.AllowedOrigins, mux),
	}

Listed origins are echoed back with credentials; "*" admits any origin
without credentials. Allowed requests may use GET, POST, PUT, DELETE and
OPTIONS with headers Content-Type, Authorization, X-Admin-Key. Preflights
from other origins get 403.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies (capped at MaxBodyBytes):

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request and rejected-admin-key log lines.
*/
package middleware
