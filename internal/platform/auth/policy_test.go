package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	tb := []struct {
		role     string
		required string
		ok       bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleLibrarian, true},
		{RoleAdmin, RoleReader, true},
		{RoleLibrarian, RoleLibrarian, true},
		{RoleLibrarian, RoleAdmin, false},
		{RoleLibrarian, RoleReader, false},
		{RoleReader, RoleReader, true},
		{RoleReader, RoleLibrarian, false},
		{"", RoleReader, false},
		{"intruder", RoleReader, false},
	}

	for _, entry := range tb {
		assert.Equal(t, entry.ok, Allowed(entry.role, entry.required), "%s vs %s", entry.role, entry.required)
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleLibrarian))
	assert.True(t, ValidRole(RoleReader))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("root"))
}
