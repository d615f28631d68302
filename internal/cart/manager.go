package cart

import (
	"context"
	"sync"
	"time"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// Factory builds a store for a session. The manager owns the result.
type Factory func(sess domain.Session) *Store

// Manager hands out one Store per signed-in user and disposes stores that go
// quiet. All signed-out traffic shares a single inert store.
type Manager struct {
	factory Factory
	idleTTL time.Duration

	mu      sync.Mutex
	entries map[int64]*managedStore
	anon    *Store
	closed  bool

	stop   context.CancelFunc
	sweeps sync.WaitGroup
}

type managedStore struct {
	store    *Store
	lastSeen time.Time
}

// NewManager starts a manager whose stores are evicted after idleTTL without
// use.
func NewManager(factory Factory, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		factory: factory,
		idleTTL: idleTTL,
		entries: make(map[int64]*managedStore),
		anon:    factory(domain.Session{}),
		stop:    cancel,
	}

	m.sweeps.Add(1)
	go func() {
		defer m.sweeps.Done()
		interval := idleTTL / 4
		if interval < time.Minute {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(time.Now())
			}
		}
	}()
	return m
}

// Get returns the store for the session, creating it on first use. The
// returned store stays valid until the user goes idle past the TTL or the
// manager closes.
func (m *Manager) Get(sess domain.Session) *Store {
	if !sess.IsAuthenticated {
		return m.anon
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[sess.UserID]; ok {
		entry.lastSeen = time.Now()
		return entry.store
	}
	store := m.factory(sess)
	m.entries[sess.UserID] = &managedStore{store: store, lastSeen: time.Now()}
	return store
}

// Dispose drops a user's store immediately, flushing nothing. Used on
// logout.
func (m *Manager) Dispose(userID int64) {
	m.mu.Lock()
	entry, ok := m.entries[userID]
	delete(m.entries, userID)
	m.mu.Unlock()

	if ok {
		entry.store.Dispose()
	}
}

// Active reports how many user stores are currently live.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	var expired []*Store
	for userID, entry := range m.entries {
		if now.Sub(entry.lastSeen) > m.idleTTL {
			expired = append(expired, entry.store)
			delete(m.entries, userID)
		}
	}
	m.mu.Unlock()

	for _, store := range expired {
		store.Dispose()
	}
}

// Close disposes every store and stops the eviction loop.
func (m *Manager) Close() {
	m.stop()
	m.sweeps.Wait()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	stores := make([]*Store, 0, len(m.entries)+1)
	for userID, entry := range m.entries {
		stores = append(stores, entry.store)
		delete(m.entries, userID)
	}
	stores = append(stores, m.anon)
	m.mu.Unlock()

	for _, store := range stores {
		store.Dispose()
	}
}
