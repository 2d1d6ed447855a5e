package provider

import (
	"errors"
	"strings"

	"patient-portal/internal/auth"
)

// ErrMissingSubject is returned when an ID token carries no sub claim.
var ErrMissingSubject = errors.New("id_token missing sub claim")

// Claims is the subset of standard OIDC ID token claims the portal reads.
type Claims struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	EmailVerified     bool   `json:"email_verified"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

// Identity normalizes the claims. A missing email yields an identity with
// no addresses; rejecting it is the resolver's decision.
func (c Claims) Identity(providerName string) (*auth.Identity, error) {
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = c.PreferredUsername
	}

	var emails []string
	if e := strings.TrimSpace(c.Email); e != "" {
		emails = []string{e}
	}

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: c.Subject,
		DisplayName:    name,
		Emails:         emails,
		EmailVerified:  c.EmailVerified,
	}, nil
}
