// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

// Package postgres implements auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/meetbot/meetbot/internal/auth"
)

// Unique constraint names created by migration 000001.
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// poolIface is the subset of pgxpool.Pool used by the repository.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectUser = `
	SELECT id, username, email, password_hash, created_bot_ids, credit_id, created_at, updated_at
	FROM users
`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user and returns it with a freshly assigned ID.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	stored := *user
	stored.ID = ulid.Make()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}

	botIDs := make([]string, len(stored.CreatedBotIDs))
	for i, id := range stored.CreatedBotIDs {
		botIDs[i] = id.String()
	}
	if stored.CreatedBotIDs == nil {
		stored.CreatedBotIDs = []ulid.ULID{}
	}

	var creditID *string
	if stored.CreditID != nil {
		s := stored.CreditID.String()
		creditID = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, username, email, password_hash, created_bot_ids, credit_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		stored.ID.String(),
		stored.Username,
		stored.Email,
		stored.PasswordHash,
		botIDs,
		creditID,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return nil, oops.In("postgres").
				With("operation", "insert user").
				With("field", field).
				Wrap(&auth.DuplicateKeyError{Field: field})
		}
		return nil, oops.In("postgres").
			With("operation", "insert user").
			With("username", stored.Username).
			Wrap(err)
	}
	return &stored, nil
}

// GetByUsername retrieves a user by normalized username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+`WHERE username = $1`, username)
	return r.get(row, "username", username)
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+`WHERE email = $1`, email)
	return r.get(row, "email", email)
}

func (r *UserRepository) get(row pgx.Row, key, value string) (*auth.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.In("postgres").With(key, value).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.In("postgres").
			With("operation", "get user by "+key).
			With(key, value).
			Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user     auth.User
		idStr    string
		botIDs   []string
		creditID *string
	)
	if err := row.Scan(
		&idStr,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&botIDs,
		&creditID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers classify pgx.ErrNoRows
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("id", idStr).Wrapf(err, "corrupt user id")
	}
	user.ID = id

	user.CreatedBotIDs = make([]ulid.ULID, 0, len(botIDs))
	for _, s := range botIDs {
		botID, err := ulid.Parse(s)
		if err != nil {
			return nil, oops.With("user_id", idStr).With("bot_id", s).Wrapf(err, "corrupt bot id")
		}
		user.CreatedBotIDs = append(user.CreatedBotIDs, botID)
	}

	if creditID != nil {
		cid, err := ulid.Parse(*creditID)
		if err != nil {
			return nil, oops.With("user_id", idStr).With("credit_id", *creditID).Wrapf(err, "corrupt credit id")
		}
		user.CreditID = &cid
	}
	return &user, nil
}

// duplicateField maps a unique-violation error to the user field it names.
func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return "username", true
	case emailConstraint:
		return "email", true
	default:
		return "", true
	}
}

var _ auth.UserRepository = (*UserRepository)(nil)
