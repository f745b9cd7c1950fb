// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/meetbot/meetbot/internal/auth"
	"github.com/meetbot/meetbot/internal/auth/postgres"
)

var _ = Describe("UserRepository", func() {
	var (
		ctx  context.Context
		repo *postgres.UserRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewUserRepository(testPool)
		_, err := testPool.Exec(ctx, `TRUNCATE users`)
		Expect(err).NotTo(HaveOccurred())
	})

	newUser := func(username, email string) *auth.User {
		user, err := auth.NewUser(username, email, "hash")
		Expect(err).NotTo(HaveOccurred())
		return user
	}

	It("round-trips a user", func() {
		credit := ulid.Make()
		bot := ulid.Make()
		user := newUser("alice", "alice@x.com")
		user.CreditID = &credit
		user.CreatedBotIDs = []ulid.ULID{bot}

		stored, err := repo.Create(ctx, user)
		Expect(err).NotTo(HaveOccurred())

		byEmail, err := repo.GetByEmail(ctx, "alice@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(stored.ID))
		Expect(byEmail.CreatedBotIDs).To(Equal([]ulid.ULID{bot}))
		Expect(*byEmail.CreditID).To(Equal(credit))

		byUsername, err := repo.GetByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(byUsername.ID).To(Equal(stored.ID))
	})

	It("reports missing users as not found", func() {
		_, err := repo.GetByUsername(ctx, "nobody")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())

		_, err = repo.GetByEmail(ctx, "nobody@x.com")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})

	DescribeTable("maps unique violations to the conflicting field",
		func(username, email, field string) {
			_, err := repo.Create(ctx, newUser("alice", "alice@x.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Create(ctx, newUser(username, email))
			var dup *auth.DuplicateKeyError
			Expect(errors.As(err, &dup)).To(BeTrue())
			Expect(dup.Field).To(Equal(field))
		},
		Entry("username", "alice", "other@x.com", "username"),
		Entry("email", "bob", "alice@x.com", "email"),
	)

	It("rejects non-normalized identifiers", func() {
		user := newUser("alice", "alice@x.com")
		user.Email = "Alice@X.com"
		_, err := repo.Create(ctx, user)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, auth.ErrDuplicateKey)).To(BeFalse())
	})

	It("admits exactly one of many concurrent signups for the same username", func() {
		issuer, err := auth.NewTokenIssuer("integration-secret")
		Expect(err).NotTo(HaveOccurred())
		svc, err := auth.NewService(repo, auth.NewBcryptHasher(bcrypt.MinCost), issuer)
		Expect(err).NotTo(HaveOccurred())

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, errs[i] = svc.Signup(ctx, auth.SignupRequest{
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
			}
		}
		Expect(succeeded).To(Equal(1))

		var count int
		Expect(testPool.QueryRow(ctx, `SELECT count(*) FROM users WHERE username = 'racer'`).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(1))
	})
})
