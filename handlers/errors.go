// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/hirevote/middleware"
	"github.com/danielhkuo/hirevote/voting"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind voting.Kind) int {
	switch kind {
	case voting.KindNotFound:
		return http.StatusNotFound
	case voting.KindForbidden:
		return http.StatusForbidden
	case voting.KindInvalidInput:
		return http.StatusBadRequest
	case voting.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err as an ErrorResponse. Internal errors carry a generic
// message; the cause was already logged by the service.
func writeError(w http.ResponseWriter, err error) {
	middleware.ErrorResponse(w, statusFor(voting.KindOf(err)), voting.MessageOf(err))
}
