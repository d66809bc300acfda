package results

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps results for the lifetime of the process
type MemoryStore struct {
	mu      sync.RWMutex
	results []Result
	nextID  int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Record(ctx context.Context, r *Result) error {
	if err := validate(r); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	s.results = append(s.results, *r)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, q Query) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Result, 0, len(s.results))
	for _, r := range s.results {
		if q.Kind != "" && r.Kind != q.Kind {
			continue
		}
		if q.ConfigID != "" && r.ConfigID != q.ConfigID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })

	if limit := q.limit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
