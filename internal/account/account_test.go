package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocal(t *testing.T) {
	a := NewLocal("alice", "$2a$10$digest")

	require.NoError(t, a.Validate())
	cred, ok := a.Local()
	require.True(t, ok)
	assert.Equal(t, "$2a$10$digest", cred.PasswordHash)
	_, isOAuth := a.OAuth()
	assert.False(t, isOAuth)
	assert.Equal(t, KindLocal, a.Credential.Kind())
	assert.False(t, a.HasSecret())
}

func TestNewOAuth(t *testing.T) {
	a := NewOAuth("Alice Example", ProviderGoogle, "1234")

	require.NoError(t, a.Validate())
	cred, ok := a.OAuth()
	require.True(t, ok)
	assert.Equal(t, OAuthCredential{Provider: ProviderGoogle, SubjectID: "1234"}, cred)
	_, isLocal := a.Local()
	assert.False(t, isLocal)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		account *Account
	}{
		{"nil account", nil},
		{"blank username", NewLocal("  ", "digest")},
		{"missing credential", &Account{Username: "alice"}},
		{"empty password hash", NewLocal("alice", "")},
		{"empty subject", NewOAuth("alice", ProviderGoogle, "")},
		{"empty provider", NewOAuth("alice", "", "1234")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.account.Validate())
		})
	}
}

func TestSecretText(t *testing.T) {
	a := NewLocal("alice", "digest")
	assert.Equal(t, "", a.SecretText())

	secret := "I like trains"
	a.Secret = &secret
	assert.True(t, a.HasSecret())
	assert.Equal(t, "I like trains", a.SecretText())
}

func TestCloneCopiesSecret(t *testing.T) {
	secret := "original"
	a := NewLocal("alice", "digest")
	a.Secret = &secret

	c := a.Clone()
	*c.Secret = "changed"

	assert.Equal(t, "original", a.SecretText())
	assert.Equal(t, "changed", c.SecretText())
	assert.Nil(t, (*Account)(nil).Clone())
}
