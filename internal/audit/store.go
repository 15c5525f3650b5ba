package audit

import (
	"context"
	"sync"
)

// Sink accepts audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a Sink that can be queried.
type Store interface {
	Sink
	ListByPID(ctx context.Context, pidValue string) ([]Event, error)
}

// MemoryStore keeps events in process. It backs tests and deployments
// without a broker.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByPID returns the events for pidValue in append order.
func (s *MemoryStore) ListByPID(_ context.Context, pidValue string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.PIDValue == pidValue {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every recorded event.
func (s *MemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events...)
}

type fanOut []Sink

// FanOut returns a Sink appending to every sink in order. All sinks are
// attempted; the first error is returned.
func FanOut(sinks ...Sink) Sink {
	return fanOut(sinks)
}

func (f fanOut) Append(ctx context.Context, event Event) error {
	var first error
	for _, s := range f {
		if err := s.Append(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
