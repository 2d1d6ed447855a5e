package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"patient-portal/internal/db"
)

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Record, error) {
	var (
		r  Record
		id uuid.UUID
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, verified, created_at, updated_at
		FROM patients
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&id, &r.Email, &r.Name, &r.Verified, &r.CreatedAt, &r.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("patient: find by email: %w", err)
	}

	r.ID = id.String()
	return &r, nil
}

func (s *PostgresStore) Create(ctx context.Context, r Record) (*Record, error) {
	var id uuid.UUID

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO patients (email, name, verified)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, r.Email, r.Name, r.Verified).Scan(&id, &r.CreatedAt, &r.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("patient: create: %w", err)
	}

	r.ID = id.String()
	return &r, nil
}

func (s *PostgresStore) Save(ctx context.Context, r *Record) error {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return fmt.Errorf("patient: save: invalid id %q: %w", r.ID, err)
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE patients
		SET name = $2, verified = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, id, r.Name, r.Verified).Scan(&r.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("patient: save %s: %w", r.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("patient: save: %w", err)
	}
	return nil
}
