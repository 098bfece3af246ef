package profile

import (
	"sync/atomic"
	"time"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

type snapshot struct {
	profile  entities.Profile
	loadedAt time.Time
}

// Store holds the live profile. Readers always see a complete snapshot;
// Publish swaps it atomically.
// It implements ports.ProfileSource and ports.ProfilePublisher.
type Store struct {
	current atomic.Pointer[snapshot]
}

// NewStore creates a Store serving initial.
func NewStore(initial entities.Profile) *Store {
	s := &Store{}
	s.Publish(initial)
	return s
}

// Profile returns the current snapshot.
func (s *Store) Profile() entities.Profile {
	return s.current.Load().profile
}

// Publish replaces the current snapshot.
func (s *Store) Publish(p entities.Profile) {
	s.current.Store(&snapshot{profile: p, loadedAt: time.Now()})
}

// LoadedAt is when the current snapshot was published.
func (s *Store) LoadedAt() time.Time {
	return s.current.Load().loadedAt
}
