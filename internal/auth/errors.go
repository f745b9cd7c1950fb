// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package auth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned by repositories when a unique constraint is violated.
var ErrDuplicateKey = errors.New("duplicate key")

// Error codes attached to oops errors returned by this package.
const (
	CodeValidation         = "AUTH_VALIDATION_FAILED"
	CodeConflict           = "AUTH_CONFLICT"
	CodeUserNotFound       = "AUTH_USER_NOT_FOUND"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeHashingFailed      = "AUTH_HASHING_FAILED"
	CodeInternal           = "AUTH_INTERNAL"
	CodeSigningFailed      = "TOKEN_SIGNING_FAILED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
)

// DuplicateKeyError reports which unique field a write collided on.
// It matches ErrDuplicateKey with errors.Is.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

// Is reports whether target is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}
