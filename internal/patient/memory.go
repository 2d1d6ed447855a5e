package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("patient not found")
	ErrEmailTaken = errors.New("patient email already exists")
)

// MemoryStore keeps records in process. Used when no database is configured
// and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	byEmail map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: make(map[string]Record)}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryStore) Create(_ context.Context, r Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(r.Email)
	if _, ok := s.byEmail[key]; ok {
		return nil, fmt.Errorf("patient: create %s: %w", r.Email, ErrEmailTaken)
	}

	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.byEmail[key] = r

	return &r, nil
}

func (s *MemoryStore) Save(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(r.Email)
	current, ok := s.byEmail[key]
	if !ok || current.ID != r.ID {
		return fmt.Errorf("patient: save %s: %w", r.ID, ErrNotFound)
	}

	r.UpdatedAt = time.Now().UTC()
	current.Name = r.Name
	current.Verified = r.Verified
	current.UpdatedAt = r.UpdatedAt
	s.byEmail[key] = current
	return nil
}
