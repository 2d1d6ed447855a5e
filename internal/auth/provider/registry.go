package provider

import (
	"errors"
	"fmt"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// Registry holds all configured OAuth providers by name.
type Registry struct {
	providers map[string]OAuthProvider
}

// NewRegistry registers the given providers. A later provider with the same
// name replaces an earlier one.
func NewRegistry(list ...OAuthProvider) *Registry {
	m := make(map[string]OAuthProvider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}
