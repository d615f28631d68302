package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return NewClient(srv.URL, httpclient.New(cfg), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestFetchCart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart.php", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "fetch", body["mode"])
		assert.EqualValues(t, 12, body["user_id"])
		_, hasQty := body["quantity"]
		assert.False(t, hasQty, "fetch must not carry a quantity")

		// PHP-style payload: ids and quantities as strings.
		w.Write([]byte(`[{"id":"7","name":"PoE Switch","price":"2499.00","quantity":"2","image":"switch.jpg"}]`))
	})

	items, err := client.FetchCart(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 7, items[0].ID)
	assert.Equal(t, "PoE Switch", items[0].Name)
	assert.EqualValues(t, 249900, items[0].Price)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestFetchCart_NonArrayBodyIsEmptyCart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"no cart"}`))
	})

	items, err := client.FetchCart(context.Background(), 12)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchCart_ServerErrorPropagates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.FetchCart(context.Background(), 12)
	require.Error(t, err)
}

func TestAddToCart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "add", body["mode"])
		assert.EqualValues(t, 12, body["user_id"])
		assert.EqualValues(t, 7, body["product_id"])
		assert.EqualValues(t, 1, body["quantity"])
		w.Write([]byte(`{"status":"success","message":"added"}`))
	})

	require.NoError(t, client.AddToCart(context.Background(), 12, 7, 1))
}

func TestCartMutation_RejectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"out of stock"}`))
	})

	err := client.UpdateQuantity(context.Background(), 12, 7, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of stock")
}

func TestRemoveFromCart_OmitsQuantity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "delete", body["mode"])
		_, hasQty := body["quantity"]
		assert.False(t, hasQty)
		w.Write([]byte(`{"status":"success"}`))
	})

	require.NoError(t, client.RemoveFromCart(context.Background(), 12, 7))
}

func TestListProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/product.php", r.URL.Path)
		w.Write([]byte(`[{"id":"3","name":"IP Camera","price":1999.5,"stock":"4","category":"cctv"}]`))
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.EqualValues(t, 3, products[0].ID)
	assert.EqualValues(t, 199950, products[0].Price)
	assert.Equal(t, 4, products[0].Stock)
	assert.True(t, products[0].InStock())
}

func TestLogin_NestedUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login.php", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "a@b.com", body["email"])
		w.Write([]byte(`{"success":true,"user":{"id":12,"firstname":"Asha","role":"customer"}}`))
	})

	id, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 12, id.ID)
	assert.Equal(t, "Asha", id.FirstName)
}

func TestLogin_FlatReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"user_id":"12","firstname":"Asha","email":"a@b.com"}`))
	})

	id, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 12, id.ID)
	assert.Equal(t, "a@b.com", id.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Invalid email or password"}`))
	})

	_, err := client.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestPlaceOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders.php", r.URL.Path)
		body := decodeBody(t, r)
		assert.EqualValues(t, 12, body["user_id"])
		form, ok := body["formData"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "cod", form["paymentMode"])
		w.Write([]byte(`{"status":"success","order_id":991,"order_date":"2026-08-30 11:02:00"}`))
	})

	conf, err := client.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:   12,
		FormData: OrderForm{Name: "Asha", PaymentMode: "cod"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 991, conf.OrderID)
	assert.Equal(t, "2026-08-30 11:02:00", conf.OrderDate)
}

func TestFetchOrders_BareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fetch_orders.php", r.URL.Path)
		w.Write([]byte(`[{"id":"991","status":"pending","total":"290.00"}]`))
	})

	orders, err := client.FetchOrders(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.EqualValues(t, 991, orders[0].ID)
	assert.EqualValues(t, 29000, orders[0].Total)
}

func TestFetchOrders_WrappedArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orders":[{"id":991},{"id":992}]}`))
	})

	orders, err := client.FetchOrders(context.Background(), 12)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
