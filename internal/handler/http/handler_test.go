package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/health"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/middleware"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/cart"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/checkout"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/clientstore"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/session"
)

// fakeCartBackend keeps a server-side cart per user.
type fakeCartBackend struct {
	mu    sync.Mutex
	carts map[int64][]domain.LineItem
}

func newFakeCartBackend() *fakeCartBackend {
	return &fakeCartBackend{carts: make(map[int64][]domain.LineItem)}
}

func (b *fakeCartBackend) FetchCart(ctx context.Context, userID int64) ([]domain.LineItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.LineItem(nil), b.carts[userID]...), nil
}

func (b *fakeCartBackend) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.carts[userID]
	for i := range items {
		if items[i].ID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	b.carts[userID] = append(items, domain.LineItem{ID: productID, Name: "product", Price: 12500, Quantity: quantity})
	return nil
}

func (b *fakeCartBackend) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.carts[userID] {
		if b.carts[userID][i].ID == productID {
			b.carts[userID][i].Quantity = quantity
		}
	}
	return nil
}

func (b *fakeCartBackend) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.carts[userID]
	for i := range items {
		if items[i].ID == productID {
			b.carts[userID] = append(items[:i], items[i+1:]...)
			break
		}
	}
	return nil
}

type stubAuth struct {
	identity domain.Identity
	err      error
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	return s.identity, s.err
}

type stubCatalog struct {
	products []domain.Product
	err      error
}

func (s *stubCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) Product(ctx context.Context, id int64) (domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, apperrors.NotFound("product", "x")
}

type stubOrders struct {
	orders []domain.Order
	err    error
}

func (s *stubOrders) History(ctx context.Context, sess domain.Session) ([]domain.Order, error) {
	if !sess.IsAuthenticated {
		return nil, apperrors.Unauthorized("sign in")
	}
	return s.orders, s.err
}

type stubCheckout struct {
	conf checkout.Confirmation
	err  error
}

func (s *stubCheckout) PlaceOrder(ctx context.Context, sess domain.Session, items []domain.LineItem, form checkout.Form) (checkout.Confirmation, error) {
	return s.conf, s.err
}

type testEnv struct {
	srv     *httptest.Server
	cs      clientstore.Store
	reader  *session.Reader
	backend *fakeCartBackend
	auth    *stubAuth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cs := clientstore.NewMemoryStore()
	reader := session.NewReader(cs, logger)
	backend := newFakeCartBackend()

	manager := cart.NewManager(func(sess domain.Session) *cart.Store {
		return cart.New(sess, backend, cs, nil, cart.Options{DebounceWindow: 5 * time.Millisecond}, logger)
	}, time.Hour)
	t.Cleanup(manager.Close)

	auth := &stubAuth{identity: domain.Identity{ID: 12, FirstName: "Asha", Role: "customer"}}
	h := NewHandler(
		reader,
		manager,
		auth,
		&stubCatalog{products: []domain.Product{{ID: 7, Name: "PoE Switch", Price: 249900, Stock: 3}}},
		&stubOrders{orders: []domain.Order{{ID: 991}}},
		&stubCheckout{conf: checkout.Confirmation{OrderID: 991}},
		cs,
		logger,
	)

	router := NewRouter(h, health.NewHandler(), middleware.DefaultCORSConfig(), logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, cs: cs, reader: reader, backend: backend, auth: auth}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, userID string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func TestGetSession_SignedOut(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/session", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sess domain.Session
	decodeData(t, resp, &sess)
	assert.False(t, sess.IsAuthenticated)
}

func TestGetSession_HeaderResolved(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/session", nil, "12")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sess domain.Session
	decodeData(t, resp, &sess)
	assert.True(t, sess.IsAuthenticated)
	assert.EqualValues(t, 12, sess.UserID)
}

func TestGetSession_FromIdentityRecord(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.reader.SaveIdentity(context.Background(), domain.Identity{ID: 44}))

	resp := env.do(t, http.MethodGet, "/api/v1/session", nil, "")
	var sess domain.Session
	decodeData(t, resp, &sess)
	assert.EqualValues(t, 44, sess.UserID)
}

func TestLogin_PersistsIdentityAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "a@b.com", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User     domain.Identity `json:"user"`
		Redirect string          `json:"redirect"`
	}
	decodeData(t, resp, &body)
	assert.EqualValues(t, 12, body.User.ID)
	assert.Equal(t, "/products", body.Redirect)

	id, ok := env.reader.Identity(context.Background())
	require.True(t, ok)
	assert.EqualValues(t, 12, id.ID)
}

func TestLogin_ConsumesCapturedReturnURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.cs.Set(ctx, cart.ReturnURLKey, []byte(`"/product/7"`)))

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "a@b.com", "password": "secret"}, "")

	var body struct {
		Redirect string `json:"redirect"`
	}
	decodeData(t, resp, &body)
	assert.Equal(t, "/product/7", body.Redirect)

	_, err := env.cs.Get(ctx, cart.ReturnURLKey)
	assert.ErrorIs(t, err, clientstore.ErrNotFound)
}

func TestLogin_AdminRedirect(t *testing.T) {
	env := newTestEnv(t)
	env.auth.identity = domain.Identity{ID: 1, Role: "admin"}

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "admin@b.com", "password": "secret"}, "")

	var body struct {
		Redirect string `json:"redirect"`
	}
	decodeData(t, resp, &body)
	assert.Equal(t, "/admin/dashboard", body.Redirect)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.auth.err = apperrors.Unauthorized("invalid credentials")

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "a@b.com", "password": "wrong"}, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "not-an-email"}, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout_ClearsIdentity(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.reader.SaveIdentity(context.Background(), domain.Identity{ID: 12}))

	resp := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "12")
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok := env.reader.Identity(context.Background())
	assert.False(t, ok)
}

func TestAddItem_SignedOutGetsLoginRequired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"product_id": 7, "return_url": "/product/7"}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "LOGIN_REQUIRED", envelope.Error.Code)

	raw, err := env.cs.Get(context.Background(), cart.ReturnURLKey)
	require.NoError(t, err)
	assert.JSONEq(t, `"/product/7"`, string(raw))
}

func TestAddItem(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"product_id": 7}, "12")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload cartResponse
	decodeData(t, resp, &payload)
	require.Len(t, payload.Items, 1)
	assert.EqualValues(t, 7, payload.Items[0].ID)
	assert.True(t, payload.Loaded)
	assert.NotZero(t, payload.Totals.Total)
}

func TestUpdateItem_OptimisticReply(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 7}, "12").Body.Close()

	resp := env.do(t, http.MethodPut, "/api/v1/cart/items/7",
		map[string]any{"quantity": 4}, "12")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload cartResponse
	decodeData(t, resp, &payload)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, 4, payload.Items[0].Quantity)
}

func TestUpdateItem_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/cart", nil, "12").Body.Close()

	resp := env.do(t, http.MethodPut, "/api/v1/cart/items/99",
		map[string]any{"quantity": 4}, "12")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveItem(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 7}, "12").Body.Close()

	resp := env.do(t, http.MethodDelete, "/api/v1/cart/items/7", nil, "12")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload cartResponse
	decodeData(t, resp, &payload)
	assert.Empty(t, payload.Items)
}

func TestGetCart_FirstReadFetches(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.backend.AddToCart(context.Background(), 12, 7, 2))

	resp := env.do(t, http.MethodGet, "/api/v1/cart", nil, "12")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload cartResponse
	decodeData(t, resp, &payload)
	assert.True(t, payload.Loaded)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, 2, payload.Items[0].Quantity)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []domain.Product
	decodeData(t, resp, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "PoE Switch", products[0].Name)
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/products/99", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": 7}, "12").Body.Close()

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"name":        "Asha",
		"phone":       "9876543210",
		"address1":    "14 MG Road",
		"city":        "Kochi",
		"pincode":     "682001",
		"paymentMode": "cod",
	}, "12")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var conf checkout.Confirmation
	decodeData(t, resp, &conf)
	assert.EqualValues(t, 991, conf.OrderID)
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/orders", nil, "12")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []domain.Order
	decodeData(t, resp, &orders)
	assert.Len(t, orders, 1)
}

func TestListOrders_SignedOut(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/orders", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	live := env.do(t, http.MethodGet, "/health/live", nil, "")
	defer live.Body.Close()
	assert.Equal(t, http.StatusOK, live.StatusCode)

	ready := env.do(t, http.MethodGet, "/health/ready", nil, "")
	defer ready.Body.Close()
	assert.Equal(t, http.StatusOK, ready.StatusCode)
}
