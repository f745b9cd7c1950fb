// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

// Package authtest provides an in-memory auth.UserRepository for tests and
// local runs without PostgreSQL.
package authtest

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/meetbot/meetbot/internal/auth"
)

// MemoryUserRepository stores users in process memory. Username and email
// are unique, mirroring the database constraints.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[ulid.ULID]*auth.User
	byEmail    map[string]ulid.ULID
	byUsername map[string]ulid.ULID
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[ulid.ULID]*auth.User),
		byEmail:    make(map[string]ulid.ULID),
		byUsername: make(map[string]ulid.ULID),
	}
}

// GetByEmail retrieves a user by email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, oops.With("email", email).Wrap(auth.ErrNotFound)
	}
	return cloneUser(r.byID[id]), nil
}

// GetByUsername retrieves a user by username.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, oops.With("username", username).Wrap(auth.ErrNotFound)
	}
	return cloneUser(r.byID[id]), nil
}

// Create stores a new user, assigning it an ID.
func (r *MemoryUserRepository) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "create user").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return nil, oops.With("username", user.Username).Wrap(&auth.DuplicateKeyError{Field: "username"})
	}
	if _, taken := r.byEmail[user.Email]; taken {
		return nil, oops.With("email", user.Email).Wrap(&auth.DuplicateKeyError{Field: "email"})
	}

	stored := cloneUser(user)
	stored.ID = ulid.Make()
	if stored.CreatedBotIDs == nil {
		stored.CreatedBotIDs = []ulid.ULID{}
	}

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	r.byUsername[stored.Username] = stored.ID
	return cloneUser(stored), nil
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	c.CreatedBotIDs = slices.Clone(u.CreatedBotIDs)
	if u.CreditID != nil {
		id := *u.CreditID
		c.CreditID = &id
	}
	return &c
}

var _ auth.UserRepository = (*MemoryUserRepository)(nil)
