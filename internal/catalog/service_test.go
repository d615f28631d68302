package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

type fakeCatalogBackend struct {
	calls    atomic.Int32
	products []domain.Product
	fail     atomic.Bool
}

func (f *fakeCatalogBackend) ListProducts(ctx context.Context) ([]domain.Product, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("backend down")
	}
	return append([]domain.Product(nil), f.products...), nil
}

func testCatalog(fb *fakeCatalogBackend, ttl time.Duration) *Service {
	return NewService(fb, ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListProducts_CachesWithinTTL(t *testing.T) {
	fb := &fakeCatalogBackend{products: []domain.Product{{ID: 3, Name: "IP Camera", Price: 199900, Stock: 4}}}
	svc := testCatalog(fb, time.Minute)
	ctx := context.Background()

	first, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	second, err := svc.ListProducts(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, fb.calls.Load(), "second read is served from cache")
}

func TestListProducts_RefreshesAfterInvalidate(t *testing.T) {
	fb := &fakeCatalogBackend{products: []domain.Product{{ID: 3, Name: "IP Camera"}}}
	svc := testCatalog(fb, time.Minute)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	svc.Invalidate()
	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, fb.calls.Load())
}

func TestListProducts_FailureWithoutSnapshotIsAnError(t *testing.T) {
	fb := &fakeCatalogBackend{}
	fb.fail.Store(true)
	svc := testCatalog(fb, time.Minute)

	_, err := svc.ListProducts(context.Background())
	assert.Error(t, err)
}

func TestListProducts_StaleSnapshotOutlivesTTL(t *testing.T) {
	fb := &fakeCatalogBackend{products: []domain.Product{{ID: 3, Name: "IP Camera"}}}
	svc := testCatalog(fb, time.Nanosecond)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx)
	require.NoError(t, err)

	fb.fail.Store(true)
	time.Sleep(time.Millisecond)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err, "expired cache still beats a hard failure")
	assert.Len(t, products, 1)
}

func TestProduct_ByID(t *testing.T) {
	fb := &fakeCatalogBackend{products: []domain.Product{
		{ID: 3, Name: "IP Camera"},
		{ID: 7, Name: "PoE Switch"},
	}}
	svc := testCatalog(fb, time.Minute)
	ctx := context.Background()

	p, err := svc.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "PoE Switch", p.Name)

	_, err = svc.Product(ctx, 99)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}
