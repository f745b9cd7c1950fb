// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err, "should read embedded migrations directory")

	ups, downs := map[string]bool{}, map[string]bool{}
	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	for _, entry := range entries {
		name := entry.Name()
		assert.True(t, pattern.MatchString(name),
			"file %s should match pattern NNNNNN_name.(up|down).sql", name)
		if base, ok := strings.CutSuffix(name, ".up.sql"); ok {
			ups[base] = true
		}
		if base, ok := strings.CutSuffix(name, ".down.sql"); ok {
			downs[base] = true
		}
	}

	assert.True(t, ups["000001_create_users"])
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
}

func TestUsersMigration_DeclaresUniqueConstraints(t *testing.T) {
	sql, err := migrationsFS.ReadFile("migrations/000001_create_users.up.sql")
	require.NoError(t, err)

	// The user repository maps these names to the conflicting field.
	assert.Contains(t, string(sql), "CONSTRAINT users_username_key UNIQUE (username)")
	assert.Contains(t, string(sql), "CONSTRAINT users_email_key UNIQUE (email)")
}
