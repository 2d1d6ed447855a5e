package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsIdentity(t *testing.T) {
	id, err := Claims{
		Subject:       "1098",
		Email:         " jane@example.com ",
		EmailVerified: true,
		Name:          "Jane Doe",
	}.Identity("google")
	require.NoError(t, err)

	assert.Equal(t, "google", id.Provider)
	assert.Equal(t, "1098", id.ProviderUserID)
	assert.Equal(t, "Jane Doe", id.DisplayName)
	assert.Equal(t, []string{"jane@example.com"}, id.Emails)
	assert.True(t, id.EmailVerified)
}

func TestClaimsIdentityFallsBackToUsername(t *testing.T) {
	id, err := Claims{Subject: "s", PreferredUsername: "jdoe"}.Identity("keycloak")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", id.DisplayName)
	assert.Empty(t, id.Emails)
}

func TestClaimsIdentityRequiresSubject(t *testing.T) {
	_, err := Claims{Email: "a@example.com"}.Identity("google")
	assert.ErrorIs(t, err, ErrMissingSubject)
}
