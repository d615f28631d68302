// Package cart keeps a per-user mirror of the server-side shopping cart and
// pushes every mutation back upstream. The backend remains the source of
// truth: mutations are followed by a full refetch rather than local
// reconciliation, and rapid quantity changes are debounced so only the final
// value reaches the wire. Operations report success as a bool and never
// return errors; consuming views have nothing useful to do with a transport
// failure beyond what the store already logs.
package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/clientstore"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// Backend is the slice of the upstream API the cart needs.
type Backend interface {
	FetchCart(ctx context.Context, userID int64) ([]domain.LineItem, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID int64) error
}

// Publisher receives cart analytics events. Implementations must not block;
// delivery is best effort.
type Publisher interface {
	CartUpdated(ctx context.Context, userID int64, cart domain.Cart)
	CartCleared(ctx context.Context, userID int64)
}

// Options tune the store's synchronization behavior.
type Options struct {
	// DebounceWindow is how long a quantity change may sit before it is
	// flushed upstream. Each further change to the same product restarts it.
	DebounceWindow time.Duration

	// PendingTTL bounds how long a persisted pending marker stays credible.
	PendingTTL time.Duration

	// FlushTimeout bounds the upstream call made when a debounce fires.
	FlushTimeout time.Duration

	// RollbackOnFailure restores the pre-change quantity when a flush is
	// rejected upstream. Off by default: the user's intended value stays
	// visible and the pending marker records the divergence.
	RollbackOnFailure bool
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 60 * time.Millisecond
	}
	if o.PendingTTL <= 0 {
		o.PendingTTL = 10 * time.Minute
	}
	if o.FlushTimeout <= 0 {
		o.FlushTimeout = 15 * time.Second
	}
	return o
}

// Store mirrors one user's cart. Construct via New, dispose via Dispose.
type Store struct {
	sess    domain.Session
	backend Backend
	client  clientstore.Store
	events  Publisher
	logger  *slog.Logger
	opts    Options
	deb     *debouncer

	mu     sync.Mutex
	items  []domain.LineItem
	loaded bool
	prev   map[int64]int
	subs   map[chan domain.Cart]struct{}
}

// New builds a store bound to one session. An unauthenticated session yields
// a store that loads empty and rejects mutations without touching the
// network. events may be nil.
func New(sess domain.Session, backend Backend, client clientstore.Store, events Publisher, opts Options, logger *slog.Logger) *Store {
	opts = opts.withDefaults()
	return &Store{
		sess:    sess,
		backend: backend,
		client:  client,
		events:  events,
		logger:  logger.With(slog.Int64("user_id", sess.UserID)),
		opts:    opts,
		deb:     newDebouncer(opts.DebounceWindow),
		prev:    make(map[int64]int),
		subs:    make(map[chan domain.Cart]struct{}),
	}
}

// Session returns the session the store was built for.
func (s *Store) Session() domain.Session {
	return s.sess
}

// FetchCart replaces the local mirror with the backend's view. On failure
// the prior items are kept and the store still counts as loaded, so views
// render stale-but-plausible data instead of an error state. Unauthenticated
// sessions load an empty cart with no network call.
func (s *Store) FetchCart(ctx context.Context) {
	if !s.sess.IsAuthenticated {
		s.mu.Lock()
		s.items = nil
		s.loaded = true
		s.mu.Unlock()
		s.notify()
		return
	}

	items, err := s.backend.FetchCart(ctx, s.sess.UserID)
	if err != nil {
		metricRefetches.WithLabelValues("failure").Inc()
		s.logger.ErrorContext(ctx, "cart refetch failed, keeping previous state",
			slog.String("error", err.Error()),
		)
		s.mu.Lock()
		s.loaded = true
		s.mu.Unlock()
		s.notify()
		return
	}
	metricRefetches.WithLabelValues("success").Inc()

	// A fresh pending marker means a local change is still in flight (or was
	// interrupted by a restart): its quantity wins over the fetched one and
	// the flush is re-armed so the divergence resolves.
	var rearm []int64
	for i := range items {
		marker, ok := s.readPending(ctx, items[i].ID)
		if !ok {
			continue
		}
		if marker.Quantity != items[i].Quantity {
			items[i].Quantity = marker.Quantity
			rearm = append(rearm, items[i].ID)
		} else {
			s.clearPending(ctx, items[i].ID)
		}
	}

	s.mu.Lock()
	s.items = items
	s.loaded = true
	s.mu.Unlock()

	for _, productID := range rearm {
		s.deb.Schedule(productID, func() { s.flushUpdate(productID) })
	}
	metricPendingTimers.Set(float64(s.deb.Len()))
	s.notify()
}

// AddToCart puts one unit of a product into the cart. For signed-out
// sessions it records the page to return to after login (when the caller
// attached one via WithReturnURL) and reports false so the view can redirect.
func (s *Store) AddToCart(ctx context.Context, productID int64) bool {
	if !s.sess.IsAuthenticated {
		s.saveReturnURL(ctx)
		return false
	}

	if err := s.backend.AddToCart(ctx, s.sess.UserID, productID, 1); err != nil {
		s.logger.ErrorContext(ctx, "add to cart rejected",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.FetchCart(ctx)
	s.publishUpdated(ctx)
	return true
}

// UpdateQuantity sets a product's quantity optimistically and schedules the
// upstream write behind the debounce window. Quantities below one are
// rejected; removal is RemoveFromCart's job. The local value is visible
// immediately, a pending marker preserves it across restarts, and only the
// final value of a burst of changes is sent.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) bool {
	if quantity < 1 {
		return false
	}
	if !s.sess.IsAuthenticated {
		return false
	}

	s.mu.Lock()
	idx := findIndex(s.items, productID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.prev[productID]; !ok {
		s.prev[productID] = s.items[idx].Quantity
	}
	s.items[idx].Quantity = quantity
	s.mu.Unlock()

	s.writePending(ctx, productID, quantity)
	if s.deb.Schedule(productID, func() { s.flushUpdate(productID) }) {
		metricCoalesced.Inc()
	}
	metricPendingTimers.Set(float64(s.deb.Len()))
	s.notify()
	return true
}

// RemoveFromCart deletes a product immediately, bypassing the debounce. Any
// pending quantity update for the product is cancelled first so a stale
// flush cannot resurrect the line.
func (s *Store) RemoveFromCart(ctx context.Context, productID int64) bool {
	if !s.sess.IsAuthenticated {
		return false
	}

	s.deb.Cancel(productID)
	metricPendingTimers.Set(float64(s.deb.Len()))
	s.clearPending(ctx, productID)
	s.forgetPrev(productID)

	if err := s.backend.RemoveFromCart(ctx, s.sess.UserID, productID); err != nil {
		s.logger.ErrorContext(ctx, "remove from cart rejected",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.FetchCart(ctx)
	if len(s.Items()) == 0 {
		s.publishCleared(ctx)
	} else {
		s.publishUpdated(ctx)
	}
	return true
}

// flushUpdate sends the current local quantity for a product upstream. Runs
// on the debounce timer goroutine.
func (s *Store) flushUpdate(productID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.FlushTimeout)
	defer cancel()
	metricPendingTimers.Set(float64(s.deb.Len()))

	s.mu.Lock()
	idx := findIndex(s.items, productID)
	if idx < 0 {
		s.mu.Unlock()
		s.clearPending(ctx, productID)
		s.forgetPrev(productID)
		return
	}
	quantity := s.items[idx].Quantity
	s.mu.Unlock()

	if err := s.backend.UpdateQuantity(ctx, s.sess.UserID, productID, quantity); err != nil {
		metricFlushes.WithLabelValues("failure").Inc()
		s.logger.ErrorContext(ctx, "quantity update rejected",
			slog.Int64("product_id", productID),
			slog.Int("quantity", quantity),
			slog.Bool("rollback", s.opts.RollbackOnFailure),
			slog.String("error", err.Error()),
		)
		if s.opts.RollbackOnFailure {
			s.rollback(ctx, productID)
		}
		// Without rollback the marker stays: the local value remains visible
		// and a later refetch re-arms the flush.
		return
	}

	metricFlushes.WithLabelValues("success").Inc()
	s.clearPending(ctx, productID)
	s.forgetPrev(productID)
	s.FetchCart(ctx)
	s.publishUpdated(ctx)
}

// rollback restores the quantity the product had before the failed burst of
// changes.
func (s *Store) rollback(ctx context.Context, productID int64) {
	s.mu.Lock()
	if prev, ok := s.prev[productID]; ok {
		if idx := findIndex(s.items, productID); idx >= 0 {
			s.items[idx].Quantity = prev
		}
		delete(s.prev, productID)
	}
	s.mu.Unlock()

	s.clearPending(ctx, productID)
	s.notify()
}

func (s *Store) forgetPrev(productID int64) {
	s.mu.Lock()
	delete(s.prev, productID)
	s.mu.Unlock()
}

// Items returns a copy of the current line items.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LineItem(nil), s.items...)
}

// Loaded reports whether the first fetch attempt has completed, successfully
// or not.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns the cart as one consistent value.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Cart {
	return domain.Cart{
		Items:  append([]domain.LineItem(nil), s.items...),
		Loaded: s.loaded,
	}
}

// Subscribe returns a channel receiving a cart snapshot after every state
// change, plus a cancel func. Slow receivers miss intermediate snapshots
// rather than blocking mutations.
func (s *Store) Subscribe() (<-chan domain.Cart, func()) {
	ch := make(chan domain.Cart, 4)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}

// Dispose cancels pending flushes and closes subscriber channels. The store
// must not be used afterwards.
func (s *Store) Dispose() {
	s.deb.Stop()
	metricPendingTimers.Set(0)

	s.mu.Lock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Store) publishUpdated(ctx context.Context) {
	if s.events == nil {
		return
	}
	s.events.CartUpdated(ctx, s.sess.UserID, s.Snapshot())
}

func (s *Store) publishCleared(ctx context.Context) {
	if s.events == nil {
		return
	}
	s.events.CartCleared(ctx, s.sess.UserID)
}

func findIndex(items []domain.LineItem, productID int64) int {
	for i := range items {
		if items[i].ID == productID {
			return i
		}
	}
	return -1
}

// ReturnURLKey is the client-store key holding the page a signed-out visitor
// was on when they tried to add to cart. The login flow consumes it for the
// post-login redirect.
const ReturnURLKey = "returnUrl"

type ctxKey int

const returnURLCtxKey ctxKey = iota

// WithReturnURL attaches the caller's current page path to the context so a
// rejected AddToCart can record where to come back to.
func WithReturnURL(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, returnURLCtxKey, path)
}

func (s *Store) saveReturnURL(ctx context.Context) {
	path, _ := ctx.Value(returnURLCtxKey).(string)
	if path == "" {
		return
	}
	raw, err := json.Marshal(path)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, ReturnURLKey, raw); err != nil {
		s.logger.WarnContext(ctx, "persist return url", slog.String("error", err.Error()))
	}
}

// ConsumeReturnURL reads and clears the captured return URL. Missing or
// malformed values yield the empty string.
func ConsumeReturnURL(ctx context.Context, cs clientstore.Store) string {
	raw, err := cs.Get(ctx, ReturnURLKey)
	if err != nil {
		return ""
	}
	_ = cs.Delete(ctx, ReturnURLKey)

	var path string
	if err := json.Unmarshal(raw, &path); err != nil {
		return ""
	}
	return path
}
