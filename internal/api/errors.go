// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package api

import (
	"log/slog"
	"net/http"

	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/pkg/errutil"
)

const internalErrorMessage = "Internal server error"

// statusForCode maps an error code to the HTTP status it is rendered with.
// Unknown codes are server errors.
func statusForCode(code string) int {
	switch code {
	case auth.CodeValidation:
		return http.StatusUnprocessableEntity
	case auth.CodeConflict:
		return http.StatusConflict
	case auth.CodeUserNotFound:
		return http.StatusNotFound
	case auth.CodeInvalidCredentials:
		return http.StatusBadRequest
	case auth.CodeTokenExpired, auth.CodeTokenInvalid, codeUnauthenticated:
		return http.StatusUnauthorized
	case codeBadRequestBody:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"message": ...}. Server errors never expose
// their message and are logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := errutil.Code(err)
	status := statusForCode(code)

	msg := errutil.PublicMessage(err)
	if status >= http.StatusInternalServerError || msg == "" {
		msg = internalErrorMessage
	}
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), logger, "request failed", err)
	}

	writeJSON(w, status, messageResponse{Message: msg})
}
