package audit

import (
	"context"
	"sync"
	"time"
)

// Store persists audit events in append order. Implementations must be safe
// for one writer running concurrently with readers and the retention prune.
type Store interface {
	// Append persists the event, assigning a monotonic ID.
	Append(ctx context.Context, event *Event) error
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)
	// ByType returns up to limit events of one type, newest first.
	ByType(ctx context.Context, eventType EventType, limit int) ([]Event, error)
	// Range returns events with Timestamp in [from, to], oldest first.
	Range(ctx context.Context, from, to time.Time) ([]Event, error)
	// DeleteBefore removes events older than cutoff and reports how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// Close releases the underlying storage handle.
	Close() error
}

// MemoryStore is the in-process Store used by default and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	nextID int64
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Append(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = s.nextID
	s.nextID++
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *MemoryStore) ByType(_ context.Context, eventType EventType, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].Type == eventType {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) Range(_ context.Context, from, to time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, event := range s.events {
		if !event.Timestamp.Before(from) && !event.Timestamp.After(to) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, event := range s.events {
		if event.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	s.events = kept
	return deleted, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
