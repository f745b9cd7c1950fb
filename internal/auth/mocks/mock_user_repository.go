// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meetbot/meetbot/internal/auth"
)

// MockUserRepository is a testify mock of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted when the test ends.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GetByEmail provides a mock function.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	ret := m.Called(ctx, email)
	return userResult(ret, "GetByEmail", func(f func(context.Context, string) (*auth.User, error)) (*auth.User, error) {
		return f(ctx, email)
	})
}

// GetByUsername provides a mock function.
func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	ret := m.Called(ctx, username)
	return userResult(ret, "GetByUsername", func(f func(context.Context, string) (*auth.User, error)) (*auth.User, error) {
		return f(ctx, username)
	})
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	ret := m.Called(ctx, user)
	if len(ret) == 0 {
		panic("no return value specified for Create")
	}
	if rf, ok := ret.Get(0).(func(context.Context, *auth.User) (*auth.User, error)); ok {
		return rf(ctx, user)
	}

	var r0 *auth.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.User)
	}
	return r0, ret.Error(1)
}

func userResult(ret mock.Arguments, method string, call func(func(context.Context, string) (*auth.User, error)) (*auth.User, error)) (*auth.User, error) {
	if len(ret) == 0 {
		panic("no return value specified for " + method)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) (*auth.User, error)); ok {
		return call(rf)
	}

	var r0 *auth.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.User)
	}
	return r0, ret.Error(1)
}

var _ auth.UserRepository = (*MockUserRepository)(nil)
