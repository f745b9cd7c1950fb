// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// TokenType distinguishes the two credential kinds issued on sign-in.
type TokenType string

// Token kinds.
const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeSession TokenType = "session"
)

// Default token lifetimes.
const (
	AccessTokenTTL  = 24 * time.Hour
	SessionTokenTTL = 10 * 24 * time.Hour
)

// Identity is the subject embedded in every issued token.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

// IsZero reports whether no identity field is set.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.Email == "" && i.Username == ""
}

// Claims is the JWT payload carried by access and session tokens.
type Claims struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Type     TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Identity returns the subject of the token.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Username: c.Username}
}

// Expiry returns the expiration instant, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenIssuer signs and verifies HS256 tokens with a process-wide secret.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// TokenIssuerOption configures a TokenIssuer.
type TokenIssuerOption func(*TokenIssuer)

// WithTokenClock overrides the clock used for issuing and validating tokens.
func WithTokenClock(now func() time.Time) TokenIssuerOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTokenTTLs overrides the access and session token lifetimes.
// Non-positive values keep the defaults.
func WithTokenTTLs(access, session time.Duration) TokenIssuerOption {
	return func(t *TokenIssuer) {
		if access > 0 {
			t.accessTTL = access
		}
		if session > 0 {
			t.sessionTTL = session
		}
	}
}

// NewTokenIssuer creates a TokenIssuer for the given signing secret.
func NewTokenIssuer(secret string, opts ...TokenIssuerOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("signing secret cannot be empty")
	}

	t := &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  AccessTokenTTL,
		sessionTTL: SessionTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// AccessTTL returns the access token lifetime.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// SessionTTL returns the session token lifetime.
func (t *TokenIssuer) SessionTTL() time.Duration { return t.sessionTTL }

// IssueAccessToken signs a short-lived access token for the identity.
func (t *TokenIssuer) IssueAccessToken(id Identity) (string, error) {
	return t.issue(id, TokenTypeAccess, t.accessTTL)
}

// IssueSessionToken signs a long-lived session token for the identity.
func (t *TokenIssuer) IssueSessionToken(id Identity) (string, error) {
	return t.issue(id, TokenTypeSession, t.sessionTTL)
}

func (t *TokenIssuer) issue(id Identity, typ TokenType, ttl time.Duration) (string, error) {
	if id.IsZero() {
		return "", oops.Code(CodeInvalidInput).
			With("token_type", string(typ)).
			Errorf("token claims cannot be empty")
	}
	if id.UserID == "" {
		return "", oops.Code(CodeInvalidInput).
			With("token_type", string(typ)).
			Errorf("token subject cannot be empty")
	}

	now := t.now()
	claims := Claims{
		UserID:   id.UserID,
		Email:    id.Email,
		Username: id.Username,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", oops.Code(CodeSigningFailed).
			With("token_type", string(typ)).
			Wrap(err)
	}
	return signed, nil
}

// Decode verifies the token signature and expiry and returns its claims.
// Expired tokens fail with TOKEN_EXPIRED; every other defect fails with
// TOKEN_INVALID.
func (t *TokenIssuer) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(CodeTokenExpired).
				Public("Token has expired").
				Errorf("token has expired")
		}
		return nil, oops.Code(CodeTokenInvalid).
			Public("Invalid token").
			Wrap(err)
	}

	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeSession {
		return nil, oops.Code(CodeTokenInvalid).
			With("token_type", string(claims.Type)).
			Public("Invalid token").
			Errorf("unknown token type")
	}
	if claims.UserID == "" {
		return nil, oops.Code(CodeTokenInvalid).
			Public("Invalid token").
			Errorf("token has no subject")
	}
	return claims, nil
}

// DecodeAs decodes token and additionally requires it to be of kind typ.
func (t *TokenIssuer) DecodeAs(token string, typ TokenType) (*Claims, error) {
	claims, err := t.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, oops.Code(CodeTokenInvalid).
			With("token_type", string(claims.Type)).
			With("expected_type", string(typ)).
			Public("Invalid token").
			Errorf("unexpected token type")
	}
	return claims, nil
}
