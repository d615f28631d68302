package clientstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory. It backs tests and
// ephemeral "incognito" deployments where nothing should survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[chan Event]struct{}
}

// NewMemoryStore creates an empty in-memory client store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[chan Event]struct{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), value...)
	s.mu.Unlock()

	s.notify(key)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	s.notify(key)
	return nil
}

func (s *MemoryStore) notify(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- Event{Key: key}:
		default:
		}
	}
}

func (s *MemoryStore) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
