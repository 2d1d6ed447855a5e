package keycloak

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), "http://kc/realms/portal", "", "http://localhost/cb", "http://localhost:8081")
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestPublicAuthURL(t *testing.T) {
	tests := []struct {
		name, issuer, public, auth, want string
	}{
		{
			name:   "rewrites internal host",
			issuer: "http://keycloak:8080/realms/portal",
			public: "http://localhost:8081/",
			auth:   "http://keycloak:8080/realms/portal/protocol/openid-connect/auth",
			want:   "http://localhost:8081/realms/portal/protocol/openid-connect/auth",
		},
		{
			name:   "foreign auth url untouched",
			issuer: "http://keycloak:8080/realms/portal",
			public: "http://localhost:8081",
			auth:   "https://sso.example.com/auth",
			want:   "https://sso.example.com/auth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicAuthURL(tt.issuer, tt.public, tt.auth))
		})
	}
}
