// Package clientstore provides the durable client-side key-value storage the
// storefront uses for its identity record, post-login return URLs, and
// transient pending-update markers. It is the server-side stand-in for what a
// browser keeps in local storage: small JSON values, shared between
// independent writers, last write wins, no locking.
package clientstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("clientstore: key not found")

// Event signals that a key changed. An empty Key means the watcher could not
// attribute the change to a single key and readers should re-check whatever
// they care about.
type Event struct {
	Key string
}

// Store is durable client storage. Values are opaque JSON blobs. Watch
// delivers change notifications from any writer, including other processes,
// which is what keeps concurrent "tabs" consistent without polling.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Watch returns a channel of change events. The channel is closed when
	// ctx is canceled. Notifications are best effort: a slow receiver may
	// miss intermediate events but will always observe a trailing one.
	Watch(ctx context.Context) (<-chan Event, error)

	// Ping reports whether the underlying storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
