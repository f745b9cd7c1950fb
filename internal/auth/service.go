// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"

	"github.com/meetbot/meetbot/pkg/errutil"
)

// Success messages returned to callers.
const (
	SignupSuccessMessage = "Signup successful"
	SigninSuccessMessage = "Sign-in successful"
)

// TokenSigner issues the credentials handed out on signup and sign-in.
type TokenSigner interface {
	IssueAccessToken(id Identity) (string, error)
	IssueSessionToken(id Identity) (string, error)
}

// SignupRequest carries raw signup input.
type SignupRequest struct {
	Username string
	Email    string
	Password string
}

// SigninRequest carries raw sign-in input. At least one of Username or
// Email must be set; Username wins when both are.
type SigninRequest struct {
	Username string
	Email    string
	Password string
}

// TokenPair holds the two credentials issued per successful authentication.
type TokenPair struct {
	AccessToken  string
	SessionToken string
}

// Result is returned by a successful Signup or Signin.
type Result struct {
	Message string
	UserID  string
	Tokens  TokenPair
}

// Service provides account authentication operations.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	tokens    TokenSigner
	hashSlots *semaphore.Weighted
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for service events.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxConcurrentHashes bounds the number of bcrypt computations running
// at once. Callers beyond the bound wait until a slot frees or their context
// ends.
func WithMaxConcurrentHashes(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.hashSlots = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenSigner, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE_CONFIG").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE_CONFIG").Errorf("token signer is required")
	}

	s := &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		hashSlots: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0) * 2)),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Signup registers a new account and issues its first token pair.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Result, error) {
	username := Normalize(req.Username)
	email := Normalize(req.Email)

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.ensureAbsent(ctx, "email", email, s.users.GetByEmail); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, "username", username, s.users.GetByUsername); err != nil {
		return nil, err
	}

	hash, err := s.hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := NewUser(username, email, hash)
	if err != nil {
		return nil, err
	}

	stored, err := s.users.Create(ctx, user)
	if err != nil {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, conflictError(dup.Field)
		}
		return nil, s.internal(ctx, "create user", err)
	}

	tokens, err := s.issueTokens(ctx, stored)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", stored.ID.String())
	return &Result{Message: SignupSuccessMessage, UserID: stored.ID.String(), Tokens: tokens}, nil
}

// Signin authenticates an existing account by username or email.
//
// An unknown identifier fails with AUTH_USER_NOT_FOUND naming the field that
// was used, while a wrong password fails with AUTH_INVALID_CREDENTIALS.
func (s *Service) Signin(ctx context.Context, req SigninRequest) (*Result, error) {
	username := Normalize(req.Username)
	email := Normalize(req.Email)

	var (
		field string
		user  *User
		err   error
	)
	switch {
	case username != "":
		field = "username"
		user, err = s.users.GetByUsername(ctx, username)
	case email != "":
		field = "email"
		user, err = s.users.GetByEmail(ctx, email)
	default:
		return nil, validationError("username_or_email", "Either username or email must be provided")
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.InfoContext(ctx, "sign-in rejected", "reason", "unknown user", "field", field)
			return nil, notFoundError(field)
		}
		return nil, s.internal(ctx, "get user by "+field, err)
	}

	ok, err := s.verify(ctx, req.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "sign-in rejected", "reason", "incorrect password", "user_id", user.ID.String())
		return nil, oops.Code(CodeInvalidCredentials).
			Public("Incorrect password").
			Errorf("incorrect password")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID.String(), "via", field)
	return &Result{Message: SigninSuccessMessage, UserID: user.ID.String(), Tokens: tokens}, nil
}

func (s *Service) ensureAbsent(ctx context.Context, field, value string, lookup func(context.Context, string) (*User, error)) error {
	_, err := lookup(ctx, value)
	if err == nil {
		return conflictError(field)
	}
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return s.internal(ctx, "get user by "+field, err)
}

func (s *Service) hash(ctx context.Context, password string) (string, error) {
	release, err := s.acquireHashSlot(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	hash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password hashing failed", err)
		return "", oops.Code(CodeHashingFailed).With("operation", "hash password").Wrap(err)
	}
	return hash, nil
}

func (s *Service) verify(ctx context.Context, password, hash string) (bool, error) {
	release, err := s.acquireHashSlot(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	return s.hasher.Verify(password, hash), nil
}

func (s *Service) acquireHashSlot(ctx context.Context) (func(), error) {
	if err := s.hashSlots.Acquire(ctx, 1); err != nil {
		return nil, s.internal(ctx, "acquire hash slot", err)
	}
	return func() { s.hashSlots.Release(1) }, nil
}

func (s *Service) issueTokens(ctx context.Context, user *User) (TokenPair, error) {
	id := user.Identity()

	access, err := s.tokens.IssueAccessToken(id)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "access token signing failed", err)
		return TokenPair{}, oops.Code(CodeSigningFailed).With("operation", "issue access token").Wrap(err)
	}
	session, err := s.tokens.IssueSessionToken(id)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "session token signing failed", err)
		return TokenPair{}, oops.Code(CodeSigningFailed).With("operation", "issue session token").Wrap(err)
	}
	return TokenPair{AccessToken: access, SessionToken: session}, nil
}

func (s *Service) internal(ctx context.Context, operation string, err error) error {
	wrapped := oops.Code(CodeInternal).With("operation", operation).Wrap(err)
	errutil.LogErrorContext(ctx, s.logger, "authentication failed", wrapped)
	return wrapped
}

func conflictError(field string) error {
	public := "User already exists"
	if field != "" {
		public = "User already exists with this " + field
	}
	return oops.Code(CodeConflict).
		With("field", field).
		Public(public).
		Errorf("%s", public)
}

func notFoundError(field string) error {
	public := "User not found with this " + field
	return oops.Code(CodeUserNotFound).
		With("field", field).
		Public(public).
		Errorf("%s", public)
}
