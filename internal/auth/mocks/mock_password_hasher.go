// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/meetbot/meetbot/internal/auth"
)

// MockPasswordHasher is a testify mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test ends.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	if len(ret) == 0 {
		panic("no return value specified for Hash")
	}
	if rf, ok := ret.Get(0).(func(string) (string, error)); ok {
		return rf(password)
	}
	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, hash string) bool {
	ret := m.Called(password, hash)
	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}
	if rf, ok := ret.Get(0).(func(string, string) bool); ok {
		return rf(password, hash)
	}
	return ret.Bool(0)
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)
