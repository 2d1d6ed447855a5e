package provider

import (
	"context"

	"patient-portal/internal/auth"
)

// OAuthProvider is the handshake half of a login strategy. Implementations
// return identity facts only and must not touch patient records or
// sessions.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google"). It doubles as
	// the verification tag written to patient records.
	Name() string

	// AuthCodeURL returns the authorization URL. State and PKCE
	// challenge are generated by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode trades the authorization code for tokens and returns the
	// normalized identity.
	ExchangeCode(ctx context.Context, code string, codeVerifier string) (*auth.Identity, error)
}
