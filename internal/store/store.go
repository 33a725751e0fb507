// Package store keeps document structure profiles by document id so later
// requests can reference an analyzed sample.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/hyperifyio/goreport/internal/docanalysis"
)

// ErrNotFound is returned when no profile exists for an id.
var ErrNotFound = errors.New("store: profile not found")

// Store persists profiles. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, p docanalysis.Profile) error
	Get(ctx context.Context, id string) (docanalysis.Profile, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewID returns a fresh document id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the form NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// MemoryStore keeps profiles in process memory. With a positive limit the
// oldest inserted profile is evicted once the limit is exceeded; a limit of
// zero or less leaves the store unbounded.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]docanalysis.Profile
	order    []string
	limit    int
}

func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{profiles: map[string]docanalysis.Profile{}, limit: limit}
}

// Put stores p under p.ID, replacing any previous profile. Replacing keeps
// the original insertion position.
func (m *MemoryStore) Put(_ context.Context, p docanalysis.Profile) error {
	if p.ID == "" {
		return errors.New("store: profile id is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.profiles[p.ID] = p
	for m.limit > 0 && len(m.order) > m.limit {
		delete(m.profiles, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (docanalysis.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return docanalysis.Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(m.profiles, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

// Len returns the number of stored profiles.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

func (m *MemoryStore) Close() error { return nil }
