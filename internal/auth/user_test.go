// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package auth_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/pkg/errutil"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice@x.com", auth.Normalize("  ALICE@x.com\t"))
	assert.Equal(t, "alice", auth.Normalize("Alice"))
	assert.Equal(t, "", auth.Normalize("   "))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "minimum length", username: "abc", wantErr: false},
		{name: "maximum length", username: strings.Repeat("a", 50), wantErr: false},
		{name: "multibyte counts runes", username: "ééé", wantErr: false},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 51), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, auth.CodeValidation)
			errutil.AssertErrorContext(t, err, "field", "username")
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "simple address", email: "alice@x.com", wantErr: false},
		{name: "plus addressing", email: "alice+bots@example.org", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at", email: "alice.example.com", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "spaces", email: "alice @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateEmail(tt.email)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, auth.CodeValidation)
			errutil.AssertErrorContext(t, err, "field", "email")
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, auth.ValidatePassword("longenough1"))
	assert.NoError(t, auth.ValidatePassword(strings.Repeat("p", auth.MaxPasswordBytes)))

	for _, pw := range []string{"", "short", strings.Repeat("p", auth.MaxPasswordBytes+1)} {
		err := auth.ValidatePassword(pw)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
		errutil.AssertErrorContext(t, err, "field", "password")
	}
}

func TestNewUser(t *testing.T) {
	t.Run("builds unsaved user", func(t *testing.T) {
		user, err := auth.NewUser("alice", "alice@x.com", "hash")
		require.NoError(t, err)
		assert.Equal(t, ulid.ULID{}, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@x.com", user.Email)
		assert.NotNil(t, user.CreatedBotIDs)
		assert.Empty(t, user.CreatedBotIDs)
		assert.Nil(t, user.CreditID)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("rejects invalid username", func(t *testing.T) {
		_, err := auth.NewUser("al", "alice@x.com", "hash")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := auth.NewUser("alice", "nope", "hash")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := auth.NewUser("alice", "alice@x.com", "")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidInput)
	})
}

func TestUser_Identity(t *testing.T) {
	id := ulid.Make()
	user := &auth.User{ID: id, Username: "alice", Email: "alice@x.com"}
	assert.Equal(t, auth.Identity{UserID: id.String(), Username: "alice", Email: "alice@x.com"}, user.Identity())
}

func TestDuplicateKeyError(t *testing.T) {
	err := &auth.DuplicateKeyError{Field: "email"}
	assert.True(t, errors.Is(err, auth.ErrDuplicateKey))
	assert.Equal(t, "duplicate key on email", err.Error())
	assert.Equal(t, "duplicate key", (&auth.DuplicateKeyError{}).Error())
}
