// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/meetbot/meetbot/internal/auth"
)

// MockTokenSigner is a testify mock of auth.TokenSigner.
type MockTokenSigner struct {
	mock.Mock
}

// NewMockTokenSigner creates a MockTokenSigner whose expectations are
// asserted when the test ends.
func NewMockTokenSigner(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenSigner {
	m := &MockTokenSigner{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// IssueAccessToken provides a mock function.
func (m *MockTokenSigner) IssueAccessToken(id auth.Identity) (string, error) {
	return m.issue("IssueAccessToken", id)
}

// IssueSessionToken provides a mock function.
func (m *MockTokenSigner) IssueSessionToken(id auth.Identity) (string, error) {
	return m.issue("IssueSessionToken", id)
}

func (m *MockTokenSigner) issue(method string, id auth.Identity) (string, error) {
	ret := m.MethodCalled(method, id)
	if len(ret) == 0 {
		panic("no return value specified for " + method)
	}
	if rf, ok := ret.Get(0).(func(auth.Identity) (string, error)); ok {
		return rf(id)
	}
	return ret.String(0), ret.Error(1)
}

var _ auth.TokenSigner = (*MockTokenSigner)(nil)
