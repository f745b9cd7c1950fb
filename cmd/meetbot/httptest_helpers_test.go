// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package main

import (
	"net/http"
	"net/http/httptest"
)

func newRecorder() *httptest.ResponseRecorder { return httptest.NewRecorder() }

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
