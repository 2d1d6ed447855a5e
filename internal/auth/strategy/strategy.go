// Package strategy pairs an OAuth provider with the resolver that turns its
// identities into session users.
//
// A Strategy is built explicitly at startup and handed to the HTTP layer;
// nothing registers itself globally. Authenticate returns an Outcome rather
// than invoking a completion callback, and Outcome.Done adapts it for
// callers that want the (err, user) convention.
package strategy

import (
	"context"

	"patient-portal/internal/auth/provider"
	"patient-portal/internal/auth/resolver"
	"patient-portal/internal/session"
)

// Outcome is the result of one login attempt. Exactly one of User and Err
// is set.
type Outcome struct {
	User *session.User
	Err  error
}

// Done delivers the outcome to fn exactly once: fn(nil, user) on success,
// fn(err, nil) on failure.
func (o Outcome) Done(fn func(err error, user *session.User)) {
	if o.Err != nil {
		fn(o.Err, nil)
		return
	}
	fn(nil, o.User)
}

type Strategy struct {
	provider provider.OAuthProvider
	resolver resolver.Resolver
}

func New(p provider.OAuthProvider, r resolver.Resolver) *Strategy {
	return &Strategy{provider: p, resolver: r}
}

func (s *Strategy) Name() string {
	return s.provider.Name()
}

func (s *Strategy) AuthCodeURL(state, codeChallenge string) string {
	return s.provider.AuthCodeURL(state, codeChallenge)
}

// Authenticate completes the handshake and resolves the local user.
// Handshake failures are returned as ExchangeError so callers can tell them
// apart from store failures.
func (s *Strategy) Authenticate(ctx context.Context, code, codeVerifier string) Outcome {
	identity, err := s.provider.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return Outcome{Err: &ExchangeError{Provider: s.provider.Name(), Err: err}}
	}

	user, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{User: user}
}

// ExchangeError wraps a failed provider handshake.
type ExchangeError struct {
	Provider string
	Err      error
}

func (e *ExchangeError) Error() string {
	return e.Provider + " handshake failed: " + e.Err.Error()
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Registry builds strategies on demand from the configured providers.
type Registry struct {
	providers *provider.Registry
	resolver  resolver.Resolver
}

func NewRegistry(providers *provider.Registry, r resolver.Resolver) *Registry {
	return &Registry{providers: providers, resolver: r}
}

func (r *Registry) Get(name string) (*Strategy, error) {
	p, err := r.providers.Get(name)
	if err != nil {
		return nil, err
	}
	return New(p, r.resolver), nil
}
