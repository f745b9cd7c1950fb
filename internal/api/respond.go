// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/samber/oops"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Boundary error codes.
const (
	codeBadRequestBody  = "API_BAD_REQUEST_BODY"
	codeUnauthenticated = "API_UNAUTHENTICATED"
)

type messageResponse struct {
	Message string `json:"message"`
}

type authResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type sessionResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expiresAt"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the client may have gone away
	json.NewEncoder(w).Encode(body)
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return badBody(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badBody(oops.Errorf("trailing data after JSON object"))
	}
	return nil
}

func badBody(err error) error {
	return oops.Code(codeBadRequestBody).
		Public("Invalid request body").
		Wrap(err)
}
