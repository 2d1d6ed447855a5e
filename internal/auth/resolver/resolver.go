package resolver

import (
	"context"

	"patient-portal/internal/auth"
	"patient-portal/internal/session"
)

// Resolver maps a verified external identity to a local user. It is the
// only place identity-to-user linking happens.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (*session.User, error)
}
