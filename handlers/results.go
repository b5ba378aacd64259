// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/hirevote/middleware"
	"github.com/danielhkuo/hirevote/voting"
)

type ResultsHandler struct {
	svc *voting.Service
}

func NewResultsHandler(svc *voting.Service) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// GetResults handles GET /roles/{id}/results
// Tallies stay sealed until every voter has voted on every candidate,
// unless the role allows an early look.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("id")
	if roleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role id is required")
		return
	}

	view, err := h.svc.GetResults(r.Context(), roleID)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// GetStatus handles GET /roles/{id}/status
func (h *ResultsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("id")
	if roleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role id is required")
		return
	}

	status, err := h.svc.GetStatus(r.Context(), roleID)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}
