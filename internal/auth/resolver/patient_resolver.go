package resolver

import (
	"context"
	"errors"
	"fmt"

	"patient-portal/internal/auth"
	"patient-portal/internal/logger"
	"patient-portal/internal/patient"
	"patient-portal/internal/session"
)

// ErrNoEmail rejects a login whose provider supplied no email address.
var ErrNoEmail = errors.New("identity provider returned no email address")

// ErrEmailNotVerified rejects a login whose provider has not verified the
// address. Such an identity is never linked to a patient record.
var ErrEmailNotVerified = errors.New("identity provider has not verified the email address")

// PatientResolver finds or creates the patient record keyed by the
// identity's primary email and tags it as verified by the provider.
type PatientResolver struct {
	store patient.Store
}

func NewPatientResolver(store patient.Store) *PatientResolver {
	return &PatientResolver{store: store}
}

func (r *PatientResolver) Resolve(ctx context.Context, identity *auth.Identity) (*session.User, error) {
	if identity == nil {
		return nil, errors.New("identity is nil")
	}

	email := identity.PrimaryEmail()
	if email == "" {
		return nil, ErrNoEmail
	}
	if !identity.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	rec, err := r.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve %s identity: %w", identity.Provider, err)
	}

	switch {
	case rec == nil:
		rec, err = r.store.Create(ctx, patient.Record{
			Name:     identity.DisplayName,
			Email:    email,
			Verified: identity.Provider,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve %s identity: %w", identity.Provider, err)
		}
		logger.Info("patient created from oauth login", map[string]any{
			"provider":   identity.Provider,
			"patient_id": rec.ID,
		})

	case rec.Verified != identity.Provider:
		previous := rec.Verified
		rec.Verified = identity.Provider
		if err := r.store.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("resolve %s identity: %w", identity.Provider, err)
		}
		logger.Info("patient verification source updated", map[string]any{
			"provider":   identity.Provider,
			"previous":   previous,
			"patient_id": rec.ID,
		})
	}

	name := rec.Name
	if name == "" {
		name = identity.DisplayName
	}

	return &session.User{
		ID:    rec.ID,
		Email: rec.Email,
		Name:  name,
	}, nil
}
