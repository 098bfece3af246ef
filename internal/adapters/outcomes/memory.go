package outcomes

import (
	"context"
	"sync"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

// InMemoryStore keeps outcomes for the life of the process. It is used when
// no ledger path is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	outcomes []entities.Outcome
	limit    int
}

// NewInMemoryStore creates a store that keeps at most limit outcomes,
// dropping the oldest first. A limit of zero or less means 1000.
func NewInMemoryStore(limit int) *InMemoryStore {
	if limit <= 0 {
		limit = 1000
	}
	return &InMemoryStore{limit: limit}
}

// Record implements ports.OutcomeRecorder.
func (s *InMemoryStore) Record(ctx context.Context, o entities.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcomes = append(s.outcomes, o)
	if over := len(s.outcomes) - s.limit; over > 0 {
		s.outcomes = append(s.outcomes[:0], s.outcomes[over:]...)
	}
	return nil
}

// Summary aggregates the retained outcomes.
func (s *InMemoryStore) Summary(ctx context.Context) (entities.OutcomeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := entities.OutcomeSummary{ByStatus: make(map[int]int)}
	for _, o := range s.outcomes {
		summary.Total++
		summary.ByStatus[o.Status]++
		if o.UsedFallback {
			summary.FallbackUsed++
		}
	}
	return summary, nil
}

// Recent returns up to limit outcomes, newest first.
func (s *InMemoryStore) Recent(ctx context.Context, limit int) ([]entities.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.outcomes) {
		limit = len(s.outcomes)
	}
	out := make([]entities.Outcome, 0, limit)
	for i := len(s.outcomes) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.outcomes[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }
