// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/meetbot/meetbot/pkg/errutil"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "standard error", err: errors.New("plain"), want: ""},
		{name: "uncoded oops", err: oops.Errorf("no code"), want: ""},
		{name: "coded oops", err: oops.Code("MY_CODE").Errorf("coded"), want: "MY_CODE"},
		{
			name: "uncoded wrapper keeps inner code",
			err:  oops.With("op", "x").Wrap(oops.Code("INNER").Errorf("inner")),
			want: "INNER",
		},
		{
			name: "coded wrapper over standard error",
			err:  oops.Code("OUTER").Wrap(errors.New("plain")),
			want: "OUTER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "", errutil.PublicMessage(errors.New("plain")))
	assert.Equal(t, "", errutil.PublicMessage(oops.Errorf("internal detail")))
	assert.Equal(t, "Try again", errutil.PublicMessage(oops.In("test").Public("Try again").Errorf("internal detail")))
}
