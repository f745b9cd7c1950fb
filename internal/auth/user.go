// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Credential constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// User is a stored account.
type User struct {
	ID            ulid.ULID
	Username      string
	Email         string
	PasswordHash  string
	CreatedBotIDs []ulid.ULID
	CreditID      *ulid.ULID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser builds an unsaved User from normalized, validated identifiers.
// The repository assigns the ID on Create.
func NewUser(username, email, passwordHash string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &User{
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		CreatedBotIDs: []ulid.ULID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Identity returns the token subject for the user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID.String(), Email: u.Email, Username: u.Username}
}

// Normalize lowercases and trims a username or email.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validationError(field, public string) error {
	return oops.Code(CodeValidation).
		With("field", field).
		Public(public).
		Errorf("%s", public)
}

// ValidateUsername checks the length of a normalized username.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return validationError("username", "Username must be between 3 and 50 characters")
	}
	return nil
}

// ValidateEmail checks the syntax of a normalized email address.
func ValidateEmail(email string) error {
	if email == "" || validate.Var(email, "email") != nil {
		return validationError("email", "Invalid email address")
	}
	return nil
}

// ValidatePassword checks the length bounds of a plaintext password.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return validationError("password", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordBytes {
		return validationError("password", "Password must be at most 72 bytes")
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// GetByEmail retrieves a user by normalized email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByUsername retrieves a user by normalized username.
	// Returns ErrNotFound if no user has the given username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create stores a new user and returns it with its assigned ID.
	// Returns a *DuplicateKeyError if the username or email is taken.
	Create(ctx context.Context, user *User) (*User, error)
}
