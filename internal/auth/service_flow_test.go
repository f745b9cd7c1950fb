// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package auth_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/internal/auth/authtest"
	"github.com/meetbot/meetbot/pkg/errutil"
)

type flowFixture struct {
	svc    *auth.Service
	repo   *authtest.MemoryUserRepository
	issuer *auth.TokenIssuer
}

func newFlowFixture(t *testing.T) flowFixture {
	t.Helper()
	repo := authtest.NewMemoryUserRepository()
	issuer, err := auth.NewTokenIssuer(testSecret)
	require.NoError(t, err)
	svc, err := auth.NewService(repo, auth.NewBcryptHasher(bcrypt.MinCost), issuer)
	require.NoError(t, err)
	return flowFixture{svc: svc, repo: repo, issuer: issuer}
}

func TestSignupSigninFlow(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)

	signup, err := f.svc.Signup(ctx, auth.SignupRequest{Username: "Alice", Email: "ALICE@x.com", Password: "longenough1"})
	require.NoError(t, err)
	assert.Equal(t, "Signup successful", signup.Message)
	require.NotEmpty(t, signup.UserID)

	stored, err := f.repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", stored.Email)
	assert.NotEqual(t, "longenough1", stored.PasswordHash)

	t.Run("tokens carry the normalized identity", func(t *testing.T) {
		access, err := f.issuer.Decode(signup.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenTypeAccess, access.Type)
		assert.Equal(t, auth.Identity{UserID: signup.UserID, Email: "alice@x.com", Username: "alice"}, access.Identity())
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), access.Expiry(), 5*time.Second)

		session, err := f.issuer.Decode(signup.Tokens.SessionToken)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenTypeSession, session.Type)
		assert.WithinDuration(t, time.Now().Add(240*time.Hour), session.Expiry(), 5*time.Second)
	})

	t.Run("signin by username returns the same user", func(t *testing.T) {
		result, err := f.svc.Signin(ctx, auth.SigninRequest{Username: "alice", Password: "longenough1"})
		require.NoError(t, err)
		assert.Equal(t, "Sign-in successful", result.Message)
		assert.Equal(t, signup.UserID, result.UserID)
	})

	t.Run("signin by mixed-case email", func(t *testing.T) {
		result, err := f.svc.Signin(ctx, auth.SigninRequest{Email: "Alice@X.com", Password: "longenough1"})
		require.NoError(t, err)
		assert.Equal(t, signup.UserID, result.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Signin(ctx, auth.SigninRequest{Username: "alice", Password: "wrong"})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Signin(ctx, auth.SigninRequest{Email: "nouser@x.com", Password: "longenough1"})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUserNotFound)
		errutil.AssertErrorContext(t, err, "field", "email")
	})

	t.Run("second signup with same email", func(t *testing.T) {
		_, err := f.svc.Signup(ctx, auth.SignupRequest{Username: "alice2", Email: "alice@x.com", Password: "longenough1"})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeConflict)
		errutil.AssertErrorContext(t, err, "field", "email")
	})

	t.Run("second signup with same username", func(t *testing.T) {
		_, err := f.svc.Signup(ctx, auth.SignupRequest{Username: "ALICE", Email: "other@x.com", Password: "longenough1"})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeConflict)
		errutil.AssertErrorContext(t, err, "field", "username")
	})

	assert.Equal(t, 1, f.repo.Len())
}

func TestSignup_ConcurrentSameUsername(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Signup(ctx, auth.SignupRequest{
				Username: "racer",
				Email:    fmt.Sprintf("racer%d@x.com", i),
				Password: "longenough1",
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		errutil.AssertErrorCode(t, err, auth.CodeConflict)
		errutil.AssertErrorContext(t, err, "field", "username")
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.repo.Len())
}
