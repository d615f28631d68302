// Package session derives the signed-in state from the persisted identity
// record in client storage. It is deliberately passive: it never talks to the
// backend, it only reads what the auth flow wrote.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/clientstore"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// IdentityKey is the client-store key holding the current user record.
const IdentityKey = "user"

// Reader resolves and observes the current session.
type Reader struct {
	store  clientstore.Store
	logger *slog.Logger
}

func NewReader(store clientstore.Store, logger *slog.Logger) *Reader {
	return &Reader{store: store, logger: logger}
}

// Session returns the current session. Every failure mode, including a
// missing or malformed identity record and an unreachable store, resolves to
// the unauthenticated zero session.
func (r *Reader) Session(ctx context.Context) domain.Session {
	id, ok := r.Identity(ctx)
	if !ok {
		return domain.Session{}
	}
	return id.Session()
}

// Identity returns the stored identity record, if a valid one exists.
func (r *Reader) Identity(ctx context.Context) (domain.Identity, bool) {
	raw, err := r.store.Get(ctx, IdentityKey)
	if err != nil {
		if !errors.Is(err, clientstore.ErrNotFound) {
			r.logger.WarnContext(ctx, "identity record unreadable",
				slog.String("error", err.Error()),
			)
		}
		return domain.Identity{}, false
	}
	return domain.ParseIdentity(raw)
}

// SaveIdentity persists the identity record after a successful login. Store
// watchers observe the write and re-derive their session.
func (r *Reader) SaveIdentity(ctx context.Context, id domain.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity record: %w", err)
	}
	return r.store.Set(ctx, IdentityKey, raw)
}

// ClearIdentity removes the identity record on logout.
func (r *Reader) ClearIdentity(ctx context.Context) error {
	return r.store.Delete(ctx, IdentityKey)
}

// Watch emits the session state after every relevant storage change. The
// current state is emitted first so a subscriber never starts blind.
// Consecutive duplicates are suppressed. The channel closes when ctx ends.
func (r *Reader) Watch(ctx context.Context) (<-chan domain.Session, error) {
	changes, err := r.store.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("watch client store: %w", err)
	}

	sessions := make(chan domain.Session, 1)
	go func() {
		defer close(sessions)

		last := r.Session(ctx)
		sessions <- last

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-changes:
				if !ok {
					return
				}
				// Key-attributed events for other keys cannot change the
				// session. Unattributed events force a re-read.
				if ev.Key != "" && ev.Key != IdentityKey {
					continue
				}
				current := r.Session(ctx)
				if current == last {
					continue
				}
				last = current
				select {
				case sessions <- current:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return sessions, nil
}
