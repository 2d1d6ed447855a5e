// Package patient is the persistence collaborator for portal users.
package patient

import (
	"context"
	"time"
)

// Record is a portal user. Email is unique across records; Verified names
// the channel the email was last verified through (e.g. "google").
type Record struct {
	ID        string
	Email     string
	Name      string
	Verified  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists patient records.
type Store interface {
	// FindByEmail returns (nil, nil) when no record matches.
	FindByEmail(ctx context.Context, email string) (*Record, error)
	// Create inserts a record and returns it with ID and timestamps set.
	Create(ctx context.Context, r Record) (*Record, error)
	// Save writes the mutable fields of an existing record.
	Save(ctx context.Context, r *Record) error
}
