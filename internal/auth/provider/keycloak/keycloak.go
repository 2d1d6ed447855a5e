package keycloak

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"patient-portal/internal/auth"
	"patient-portal/internal/auth/provider"
	"patient-portal/internal/logger"
)

const providerName = "keycloak"

var ErrMissingConfig = errors.New("keycloak oauth config missing required fields")

// Provider authenticates against a Keycloak realm as a public PKCE client.
type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// New initializes the provider using discovery on issuer, e.g.
// http://keycloak:8080/realms/portal. publicBaseURL replaces the host of
// the browser-facing authorization endpoint when Keycloak is reached under
// a different name from inside the cluster.
func New(ctx context.Context, issuer, clientID, redirectURL, publicBaseURL string) (*Provider, error) {
	if issuer == "" || clientID == "" || redirectURL == "" || publicBaseURL == "" {
		return nil, ErrMissingConfig
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init keycloak oidc provider: %w", err)
	}

	ep := oidcProvider.Endpoint()
	ep.AuthURL = publicAuthURL(issuer, publicBaseURL, ep.AuthURL)

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Endpoint:    ep,
			Scopes: []string{
				oidc.ScopeOpenID,
				"email",
				"profile",
			},
		},
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// publicAuthURL rewrites authURL so it starts with publicBaseURL instead of
// the issuer's origin.
func publicAuthURL(issuer, publicBaseURL, authURL string) string {
	origin := issuer
	if i := strings.Index(issuer, "/realms/"); i >= 0 {
		origin = issuer[:i]
	}
	if !strings.HasPrefix(authURL, origin) {
		return authURL
	}
	return strings.TrimRight(publicBaseURL, "/") + strings.TrimPrefix(authURL, origin)
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *Provider) ExchangeCode(ctx context.Context, code string, codeVerifier string) (*auth.Identity, error) {
	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		logger.Error("keycloak token exchange failed", map[string]any{"error": err})
		return nil, fmt.Errorf("keycloak token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("keycloak did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		logger.Error("keycloak id_token verification failed", map[string]any{"error": err})
		return nil, fmt.Errorf("keycloak id_token verification failed: %w", err)
	}

	var claims provider.Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("keycloak id_token claims parse failed: %w", err)
	}

	identity, err := claims.Identity(providerName)
	if err != nil {
		return nil, fmt.Errorf("keycloak: %w", err)
	}

	logger.Info("keycloak oidc verified", map[string]any{
		"issuer":             idToken.Issuer,
		"email_present":      len(identity.Emails) > 0,
		"email_verified":     identity.EmailVerified,
		"preferred_username": claims.PreferredUsername,
	})

	return identity, nil
}
