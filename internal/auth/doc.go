// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

// Package auth provides account authentication for MeetBot.
//
// # Primitives
//
//   - BcryptHasher - one-way password hashing with constant-time verification
//   - TokenIssuer - HS256 access (1 day) and session (10 day) tokens
//
// # Domain Types
//
// User values are created with NewUser, which expects identifiers that have
// already been passed through Normalize. Repository implementations assign
// the ID on Create and report unique violations as *DuplicateKeyError.
//
// # Services
//
// Service coordinates signup and sign-in. It is created with NewService,
// which validates its dependencies. Failures are oops errors whose code
// classifies them (see the Code* constants); safe caller-facing text is
// attached with oops Public.
package auth
