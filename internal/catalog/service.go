// Package catalog serves the product listing through a short-lived cache so
// page loads do not hammer the upstream catalog endpoint.
package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// Backend is the slice of the upstream API the catalog needs.
type Backend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Service lists products with a cache-aside in front of the backend.
type Service struct {
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	cached    []domain.Product
	fetchedAt time.Time
}

func NewService(b Backend, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{backend: b, ttl: ttl, logger: logger}
}

// ListProducts returns the catalog, refreshing the cache when it has
// expired. When a refresh fails but an older snapshot exists, the stale
// snapshot is served instead of an error.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.fetchedAt) < s.ttl {
		products := append([]domain.Product(nil), s.cached...)
		s.mu.Unlock()
		return products, nil
	}
	s.mu.Unlock()

	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		s.mu.Lock()
		stale := append([]domain.Product(nil), s.cached...)
		s.mu.Unlock()
		if len(stale) > 0 {
			s.logger.WarnContext(ctx, "catalog refresh failed, serving stale snapshot",
				slog.String("error", err.Error()),
			)
			return stale, nil
		}
		return nil, apperrors.Wrap(err, "list products")
	}

	s.mu.Lock()
	s.cached = products
	s.fetchedAt = time.Now()
	result := append([]domain.Product(nil), s.cached...)
	s.mu.Unlock()
	return result, nil
}

// Product returns one catalog entry by id.
func (s *Service) Product(ctx context.Context, id int64) (domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, apperrors.NotFound("product", strconv.FormatInt(id, 10))
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}
