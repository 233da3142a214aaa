package activity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matthewbaird/inplace/internal/event"
)

// MemoryStore implements Store using an in-memory slice.
type MemoryStore struct {
	mu     sync.RWMutex
	events []event.Event
	seen   map[string]struct{}
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Write(_ context.Context, events ...event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		if _, dup := s.seen[e.ID]; dup {
			continue
		}
		s.seen[e.ID] = struct{}{}
		s.events = append(s.events, e)
	}
	return nil
}

func (s *MemoryStore) QueryByField(_ context.Context, fieldID string, opts QueryOptions) ([]event.Event, string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cursor *time.Time
	if opts.Cursor != "" {
		if t, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			cursor = &t
		}
	}

	var matched []event.Event
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if e.FieldID != fieldID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.Names) > 0 && !hasName(opts.Names, e.Name) {
			continue
		}
		if cursor != nil && !e.OccurredAt.Before(*cursor) {
			continue
		}
		matched = append(matched, e)
	}

	// Newest first; ties keep the reverse insertion order built above.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	totalCount := len(matched)
	limit := queryLimit(opts.Limit)

	var nextCursor string
	if len(matched) > limit {
		matched = matched[:limit]
		nextCursor = matched[len(matched)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return matched, nextCursor, totalCount, nil
}

func (s *MemoryStore) Search(_ context.Context, query string, opts SearchOptions) ([]event.Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var matched []event.Event
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if !strings.Contains(strings.ToLower(summaryText(e)), q) {
			continue
		}
		if opts.FieldPrefix != "" && !strings.HasPrefix(e.FieldID, opts.FieldPrefix) {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if len(opts.Names) > 0 && !hasName(opts.Names, e.Name) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	totalCount := len(matched)
	if limit := searchLimit(opts.Limit); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, totalCount, nil
}
