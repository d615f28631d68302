package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/clientstore"
)

// pendingMarker records a quantity change that has been applied locally but
// not yet confirmed by the backend. Markers live in the client store so an
// in-flight change survives a process restart.
type pendingMarker struct {
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

func pendingKey(userID, productID int64) string {
	return fmt.Sprintf("cart:pending:%d:%d", userID, productID)
}

// writePending persists a marker. Failures are logged, never surfaced: the
// marker is a recovery aid, not a correctness requirement.
func (s *Store) writePending(ctx context.Context, productID int64, quantity int) {
	marker := pendingMarker{Quantity: quantity, Timestamp: time.Now().UTC()}
	raw, err := json.Marshal(marker)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode pending marker", slog.String("error", err.Error()))
		return
	}
	if err := s.client.Set(ctx, pendingKey(s.sess.UserID, productID), raw); err != nil {
		s.logger.WarnContext(ctx, "persist pending marker",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

// readPending returns a still-fresh marker for the product. Stale and
// malformed markers are deleted on the spot; staleness is judged at read
// time, the write path never expires anything.
func (s *Store) readPending(ctx context.Context, productID int64) (pendingMarker, bool) {
	key := pendingKey(s.sess.UserID, productID)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, clientstore.ErrNotFound) {
			s.logger.WarnContext(ctx, "read pending marker", slog.String("error", err.Error()))
		}
		return pendingMarker{}, false
	}

	var marker pendingMarker
	if err := json.Unmarshal(raw, &marker); err != nil {
		s.clearPending(ctx, productID)
		return pendingMarker{}, false
	}
	if time.Since(marker.Timestamp) > s.opts.PendingTTL {
		s.clearPending(ctx, productID)
		return pendingMarker{}, false
	}
	return marker, true
}

func (s *Store) clearPending(ctx context.Context, productID int64) {
	if err := s.client.Delete(ctx, pendingKey(s.sess.UserID, productID)); err != nil {
		s.logger.WarnContext(ctx, "clear pending marker",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
