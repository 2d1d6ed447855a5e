package auth

// Identity is a verified external identity as returned by an OAuth
// provider after the handshake. It contains facts only, no decisions.
type Identity struct {
	Provider       string   // e.g. "google", "keycloak"
	ProviderUserID string   // provider-scoped subject
	DisplayName    string   // profile name, may be empty
	Emails         []string // provider-asserted addresses, primary first
	EmailVerified  bool
}

// PrimaryEmail returns the first email, or "" when the provider sent none.
func (i *Identity) PrimaryEmail() string {
	if i == nil || len(i.Emails) == 0 {
		return ""
	}
	return i.Emails[0]
}
