// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/hirevote/middleware"
	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/voting"
)

type VotingHandler struct {
	svc *voting.Service
}

func NewVotingHandler(svc *voting.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

// SubmitVote handles POST /roles/{id}/votes
// Returns 201 for a new vote and 200 when an earlier vote was replaced.
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("id")
	if roleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role id is required")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.svc.SubmitVote(r.Context(), roleID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Updated {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, result)
}

// GetProgress handles GET /roles/{id}/progress?voter=
func (h *VotingHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("id")
	if roleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role id is required")
		return
	}

	voter := r.URL.Query().Get("voter")
	if voter == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter is required")
		return
	}

	progress, err := h.svc.GetVoterProgress(r.Context(), roleID, voter)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, progress)
}
