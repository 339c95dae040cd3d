package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAgent, RoleAdmin} {
		assert.True(t, r.Valid(), r)
	}
	for _, r := range []Role{"", "owner", "Admin"} {
		assert.False(t, r.Valid(), r)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("agent")
	require.NoError(t, err)
	assert.Equal(t, RoleAgent, r)

	_, err = ParseRole("superuser")
	require.Error(t, err)
}

func TestUser_JSONFieldNames(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","name":"Ann","email":"ann@example.org","role":"agent","agency":"Acme","isVerified":true}`), &u))

	assert.Equal(t, User{ID: "1", Name: "Ann", Email: "ann@example.org", Role: RoleAgent, Agency: "Acme", Verified: true}, u)
}
