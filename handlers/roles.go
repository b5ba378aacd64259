// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/hirevote/middleware"
	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/voting"
)

type RoleHandler struct {
	svc *voting.Service
}

func NewRoleHandler(svc *voting.Service) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// CreateRole handles POST /roles
func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	role, err := h.svc.CreateRole(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, role)
}

// ListRoles handles GET /roles?status=
func (h *RoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.svc.ListRoles(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, roles)
}

// GetRole handles GET /roles/{id}
func (h *RoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("id")
	if roleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role id is required")
		return
	}

	role, err := h.svc.GetRole(r.Context(), roleID)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, role)
}

// UpdateRole handles PUT /roles/{id}
func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("id")
	if roleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role id is required")
		return
	}

	var req models.UpdateRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	role, err := h.svc.UpdateRole(r.Context(), roleID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, role)
}

// DeleteRole handles DELETE /roles/{id}
// Roles with recorded votes are refused with 409.
func (h *RoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := r.PathValue("id")
	if roleID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role id is required")
		return
	}

	if err := h.svc.DeleteRole(r.Context(), roleID); err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeleteRoleResponse{
		RoleID:  roleID,
		Message: "Role deleted.",
	})
}
