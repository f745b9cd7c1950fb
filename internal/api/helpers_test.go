// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/internal/auth/authtest"
)

const testSecret = "api-test-secret"

type recordedAuth struct {
	operation string
	outcome   string
}

type recordedHTTP struct {
	route  string
	status int
}

type fakeRecorder struct {
	mu   sync.Mutex
	auth []recordedAuth
	http []recordedHTTP
}

func (f *fakeRecorder) RecordAuth(operation, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, recordedAuth{operation, outcome})
}

func (f *fakeRecorder) ObserveHTTP(route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.http = append(f.http, recordedHTTP{route, status})
}

// stubAuthenticator lets a test control service outcomes directly.
type stubAuthenticator struct {
	signup func(ctx context.Context, req auth.SignupRequest) (*auth.Result, error)
	signin func(ctx context.Context, req auth.SigninRequest) (*auth.Result, error)
}

func (s stubAuthenticator) Signup(ctx context.Context, req auth.SignupRequest) (*auth.Result, error) {
	return s.signup(ctx, req)
}

func (s stubAuthenticator) Signin(ctx context.Context, req auth.SigninRequest) (*auth.Result, error) {
	return s.signin(ctx, req)
}

type fixture struct {
	router  http.Handler
	issuer  *auth.TokenIssuer
	repo    *authtest.MemoryUserRepository
	metrics *fakeRecorder
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	repo := authtest.NewMemoryUserRepository()
	issuer, err := auth.NewTokenIssuer(testSecret)
	require.NoError(t, err)
	svc, err := auth.NewService(repo, auth.NewBcryptHasher(bcrypt.MinCost), issuer)
	require.NoError(t, err)
	return newFixtureWith(t, svc, issuer, repo, opts)
}

func newFixtureWith(t *testing.T, authenticator Authenticator, issuer *auth.TokenIssuer, repo *authtest.MemoryUserRepository, opts Options) fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	metrics := &fakeRecorder{}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(logs, nil))
	}
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"http://localhost:3000"}
	}
	opts.Metrics = metrics

	h, err := NewHandler(authenticator, issuer, opts)
	require.NoError(t, err)
	return fixture{router: h.Routes(), issuer: issuer, repo: repo, metrics: metrics, logs: logs}
}

func (f fixture) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func cookieNamed(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

const aliceSignup = `{"username":"Alice","email":"ALICE@x.com","password":"longenough1"}`
