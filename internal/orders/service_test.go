package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

type fakeOrdersBackend struct {
	orders []domain.Order
	err    error
	gotUID int64
}

func (f *fakeOrdersBackend) FetchOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	f.gotUID = userID
	return f.orders, f.err
}

func testOrders(fb *fakeOrdersBackend) *Service {
	return NewService(fb, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHistory(t *testing.T) {
	fb := &fakeOrdersBackend{orders: []domain.Order{{ID: 991, Status: domain.OrderStatusShipped}}}
	svc := testOrders(fb)

	orders, err := svc.History(context.Background(), domain.Session{UserID: 12, IsAuthenticated: true})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.EqualValues(t, 12, fb.gotUID)
}

func TestHistory_SignedOut(t *testing.T) {
	svc := testOrders(&fakeOrdersBackend{})

	_, err := svc.History(context.Background(), domain.Session{})
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestHistory_NoOrdersIsEmptyNotNil(t *testing.T) {
	svc := testOrders(&fakeOrdersBackend{})

	orders, err := svc.History(context.Background(), domain.Session{UserID: 12, IsAuthenticated: true})
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestHistory_BackendError(t *testing.T) {
	svc := testOrders(&fakeOrdersBackend{err: errors.New("backend down")})

	_, err := svc.History(context.Background(), domain.Session{UserID: 12, IsAuthenticated: true})
	assert.Error(t, err)
}
