package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_UnmarshalBackendSpellings(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"_id":"u1","name":"Ada","email":"ada@example.com","role":"admin","phonenumber":"0812345678"}`), &u)
	require.NoError(t, err)

	assert.Equal(t, User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: RoleAdmin, PhoneNumber: "0812345678"}, u)
	assert.True(t, u.IsAdmin())
}

func TestUser_UnmarshalMergesPartial(t *testing.T) {
	u := User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: RoleUser}

	require.NoError(t, json.Unmarshal([]byte(`{"name":"X"}`), &u))

	assert.Equal(t, "X", u.Name)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestRegisterRequest_SendsBothPhoneKeys(t *testing.T) {
	req := RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret", PhoneNumber: "0812345678"}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "0812345678", body["phoneNumber"])
	assert.Equal(t, "0812345678", body["phonenumber"])
	assert.NotContains(t, body, "role")
}
