// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

// Package api exposes the MeetBot account endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/pkg/errutil"
)

// Response messages.
const (
	RunningMessage   = "MeetBot API is running"
	RefreshedMessage = "Token refreshed"
	SignedOutMessage = "Signed out"
)

// Auth operation labels used for metrics.
const (
	opSignup  = "signup"
	opSignin  = "signin"
	opRefresh = "refresh"
)

// Authenticator performs signup and sign-in.
type Authenticator interface {
	Signup(ctx context.Context, req auth.SignupRequest) (*auth.Result, error)
	Signin(ctx context.Context, req auth.SigninRequest) (*auth.Result, error)
}

// Tokens decodes presented credentials and re-issues access tokens.
type Tokens interface {
	DecodeAs(token string, typ auth.TokenType) (*auth.Claims, error)
	IssueAccessToken(id auth.Identity) (string, error)
	AccessTTL() time.Duration
	SessionTTL() time.Duration
}

// Recorder receives request metrics.
type Recorder interface {
	RecordAuth(operation, outcome string)
	ObserveHTTP(route string, status int, elapsed time.Duration)
}

// Options configures a Handler.
type Options struct {
	AllowedOrigins []string
	// RequestTimeout bounds each request. Zero disables the deadline.
	RequestTimeout time.Duration
	CookieSecure   bool
	Logger         *slog.Logger
	Metrics        Recorder
}

// Handler serves the HTTP API.
type Handler struct {
	auth           Authenticator
	tokens         Tokens
	allowedOrigins []string
	requestTimeout time.Duration
	cookieSecure   bool
	logger         *slog.Logger
	metrics        Recorder
}

// NewHandler creates a Handler.
func NewHandler(authenticator Authenticator, tokens Tokens, opts Options) (*Handler, error) {
	if authenticator == nil {
		return nil, oops.Code("API_INVALID_CONFIG").Errorf("authenticator is required")
	}
	if tokens == nil {
		return nil, oops.Code("API_INVALID_CONFIG").Errorf("tokens are required")
	}

	h := &Handler{
		auth:           authenticator,
		tokens:         tokens,
		allowedOrigins: opts.AllowedOrigins,
		requestTimeout: opts.RequestTimeout,
		cookieSecure:   opts.CookieSecure,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.metrics == nil {
		h.metrics = nopRecorder{}
	}
	return h, nil
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLog(h.logger, h.metrics))
	r.Use(recoverer(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if h.requestTimeout > 0 {
		r.Use(middleware.Timeout(h.requestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method Not Allowed"})
	})

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/signin", h.handleSignin)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/signout", h.handleSignout)
		r.Get("/session", h.handleSession)
	})

	return r
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: RunningMessage})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "healthy"})
}

type signupBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.fail(w, r, opSignup, err)
		return
	}

	result, err := h.auth.Signup(r.Context(), auth.SignupRequest{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		h.fail(w, r, opSignup, err)
		return
	}

	h.metrics.RecordAuth(opSignup, outcomeSuccess)
	h.setAuthCookies(w, result.Tokens)
	writeJSON(w, http.StatusCreated, authResponse{Message: result.Message, UserID: result.UserID})
}

type signinBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var body signinBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.fail(w, r, opSignin, err)
		return
	}

	result, err := h.auth.Signin(r.Context(), auth.SigninRequest{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		h.fail(w, r, opSignin, err)
		return
	}

	h.metrics.RecordAuth(opSignin, outcomeSuccess)
	h.setAuthCookies(w, result.Tokens)
	writeJSON(w, http.StatusOK, authResponse{Message: result.Message, UserID: result.UserID})
}

// handleRefresh exchanges the session token cookie for a new access token.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, err := h.presented(r, RefreshTokenCookie, auth.TokenTypeSession)
	if err != nil {
		h.fail(w, r, opRefresh, err)
		return
	}

	access, err := h.tokens.IssueAccessToken(claims.Identity())
	if err != nil {
		h.fail(w, r, opRefresh, err)
		return
	}

	h.metrics.RecordAuth(opRefresh, outcomeSuccess)
	http.SetCookie(w, h.authCookie(AccessTokenCookie, access, h.tokens.AccessTTL()))
	writeJSON(w, http.StatusOK, authResponse{Message: RefreshedMessage, UserID: claims.UserID})
}

func (h *Handler) handleSignout(w http.ResponseWriter, _ *http.Request) {
	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: SignedOutMessage})
}

// handleSession reports the identity carried by the access token cookie.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, err := h.presented(r, AccessTokenCookie, auth.TokenTypeAccess)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Username:  claims.Username,
		ExpiresAt: claims.Expiry().UTC().Format(time.RFC3339),
	})
}

// presented decodes the credential stored in the named cookie.
func (h *Handler) presented(r *http.Request, cookie string, typ auth.TokenType) (*auth.Claims, error) {
	c, err := r.Cookie(cookie)
	if err != nil || c.Value == "" {
		return nil, oops.Code(codeUnauthenticated).
			With("cookie", cookie).
			Public("Not authenticated").
			Errorf("missing %s cookie", cookie)
	}
	//nolint:wrapcheck // token errors already carry their code and public message
	return h.tokens.DecodeAs(c.Value, typ)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	// middleware.Timeout owns the response once the deadline has passed.
	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		h.metrics.RecordAuth(operation, outcomeTimeout)
		h.logger.WarnContext(r.Context(), "request deadline exceeded",
			"operation", operation,
			"code", errutil.Code(err),
		)
		return
	}
	outcome := errutil.Code(err)
	if outcome == "" {
		outcome = auth.CodeInternal
	}
	h.metrics.RecordAuth(operation, outcome)
	writeError(w, r, h.logger, err)
}
