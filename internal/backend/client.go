// Package backend is the typed client for the storefront's upstream commerce
// API. The upstream exposes a small set of PHP endpoints with loose JSON
// conventions: the cart endpoint multiplexes all operations through a mode
// field, mutations answer {status,message}, reads answer bare arrays, and
// numeric fields arrive as strings as often as numbers. This package absorbs
// all of that so the rest of the codebase works with domain types.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/httpclient"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// Endpoint paths relative to the backend base URL.
const (
	cartPath        = "/cart.php"
	productPath     = "/product.php"
	loginPath       = "/login.php"
	ordersPath      = "/orders.php"
	fetchOrdersPath = "/fetch_orders.php"
)

const serviceName = "backend"

// HTTPDoer is satisfied by both httpclient.Client and
// httpclient.CircuitBreakerClient.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the upstream commerce API.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// cartRequest is the mode-tagged envelope the cart endpoint expects.
// Quantity is a pointer so delete requests omit it entirely.
type cartRequest struct {
	Mode      string `json:"mode"`
	UserID    int64  `json:"user_id"`
	ProductID int64  `json:"product_id,omitempty"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// statusReply is the {status,message} shape mutations answer with.
type statusReply struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (r statusReply) ok() bool {
	return r.Status == "success"
}

// wireLineItem tolerates string-typed ids and quantities.
type wireLineItem struct {
	ID        domain.FlexInt64 `json:"id"`
	ProductID domain.FlexInt64 `json:"product_id"`
	Name      string           `json:"name"`
	Image     string           `json:"image"`
	Price     domain.Paise     `json:"price"`
	Quantity  domain.FlexInt64 `json:"quantity"`
}

func (w wireLineItem) toDomain() domain.LineItem {
	id := int64(w.ID)
	if id == 0 {
		id = int64(w.ProductID)
	}
	return domain.LineItem{
		ID:       id,
		Name:     w.Name,
		Image:    w.Image,
		Price:    w.Price,
		Quantity: int(w.Quantity),
	}
}

// FetchCart returns the server-side cart contents for a user. The endpoint
// answers a bare JSON array; anything else is treated as an empty cart the
// way the original consumer did, except transport and HTTP errors, which are
// reported so the caller can decide how stale its mirror may be.
func (c *Client) FetchCart(ctx context.Context, userID int64) ([]domain.LineItem, error) {
	var wire []wireLineItem
	err := c.postJSON(ctx, cartPath, cartRequest{Mode: "fetch", UserID: userID}, &wire)
	if err != nil {
		if isShapeError(err) {
			c.logger.WarnContext(ctx, "cart fetch returned a non-array body, treating as empty",
				slog.Int64("user_id", userID),
			)
			return []domain.LineItem{}, nil
		}
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(wire))
	for _, w := range wire {
		items = append(items, w.toDomain())
	}
	return items, nil
}

// AddToCart inserts a product into the user's server-side cart. The server
// increments the quantity when the product is already present.
func (c *Client) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	return c.cartMutation(ctx, cartRequest{
		Mode:      "add",
		UserID:    userID,
		ProductID: productID,
		Quantity:  &quantity,
	})
}

// UpdateQuantity sets the absolute quantity of a cart line.
func (c *Client) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	return c.cartMutation(ctx, cartRequest{
		Mode:      "update",
		UserID:    userID,
		ProductID: productID,
		Quantity:  &quantity,
	})
}

// RemoveFromCart deletes a cart line.
func (c *Client) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	return c.cartMutation(ctx, cartRequest{
		Mode:      "delete",
		UserID:    userID,
		ProductID: productID,
	})
}

func (c *Client) cartMutation(ctx context.Context, req cartRequest) error {
	var reply statusReply
	if err := c.postJSON(ctx, cartPath, req, &reply); err != nil {
		return err
	}
	if !reply.ok() {
		return apperrors.BackendFailure(orDefault(reply.Message, "cart "+req.Mode+" rejected"))
	}
	return nil
}

// wireProduct tolerates string-typed ids and stock counts.
type wireProduct struct {
	ID          domain.FlexInt64 `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       domain.Paise     `json:"price"`
	Image       string           `json:"image"`
	Stock       domain.FlexInt64 `json:"stock"`
	Category    string           `json:"category"`
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+productPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Wrap(err, "fetch catalog")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}

	var wire []wireProduct
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, apperrors.BackendFailure("catalog response is not a product array")
	}

	products := make([]domain.Product, 0, len(wire))
	for _, w := range wire {
		products = append(products, domain.Product{
			ID:          int64(w.ID),
			Name:        w.Name,
			Description: w.Description,
			Price:       w.Price,
			Image:       w.Image,
			Stock:       int(w.Stock),
			Category:    w.Category,
		})
	}
	return products, nil
}

// loginReply covers both reply shapes the login endpoint is known to
// produce: a nested user object, or the user fields inlined at the top level.
type loginReply struct {
	Success   bool             `json:"success"`
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	User      *domain.Identity `json:"user"`
	UserID    domain.FlexInt64 `json:"user_id"`
	FirstName string           `json:"firstname"`
	LastName  string           `json:"lastname"`
	Email     string           `json:"email"`
	Role      string           `json:"role"`
}

// Login authenticates against the backend and returns the identity record to
// persist in client storage.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	payload := map[string]string{"email": email, "password": password}

	var reply loginReply
	if err := c.postJSON(ctx, loginPath, payload, &reply); err != nil {
		return domain.Identity{}, err
	}

	if reply.User != nil && reply.User.ID > 0 {
		return *reply.User, nil
	}
	if reply.UserID > 0 {
		return domain.Identity{
			ID:        reply.UserID,
			FirstName: reply.FirstName,
			LastName:  reply.LastName,
			Email:     reply.Email,
			Role:      reply.Role,
		}, nil
	}
	return domain.Identity{}, apperrors.Unauthorized(orDefault(reply.Message, "invalid credentials"))
}

// PlaceOrderRequest is the order submission payload. The field names follow
// the upstream contract.
type PlaceOrderRequest struct {
	UserID    int64             `json:"user_id"`
	CartItems []domain.LineItem `json:"cartItems"`
	FormData  OrderForm         `json:"formData"`
}

// OrderForm is the shipping and payment section of an order submission.
type OrderForm struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	Pincode     string `json:"pincode"`
	PaymentMode string `json:"paymentMode"`
}

// OrderConfirmation is the successful order reply.
type OrderConfirmation struct {
	OrderID   domain.FlexInt64 `json:"order_id"`
	OrderDate string           `json:"order_date"`
}

// PlaceOrder submits an order.
func (c *Client) PlaceOrder(ctx context.Context, order PlaceOrderRequest) (OrderConfirmation, error) {
	var reply struct {
		statusReply
		OrderConfirmation
	}
	if err := c.postJSON(ctx, ordersPath, order, &reply); err != nil {
		return OrderConfirmation{}, err
	}
	if !reply.ok() {
		return OrderConfirmation{}, apperrors.BackendFailure(orDefault(reply.Message, "order rejected"))
	}
	return reply.OrderConfirmation, nil
}

// FetchOrders returns a user's order history. The endpoint has been observed
// answering both a bare array and an {orders:[...]} wrapper, so both decode.
func (c *Client) FetchOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	payload := map[string]int64{"user_id": userID}

	var raw json.RawMessage
	if err := c.postJSON(ctx, fetchOrdersPath, payload, &raw); err != nil {
		return nil, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err == nil {
		return orders, nil
	}

	var wrapper struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Orders != nil {
		return wrapper.Orders, nil
	}
	return nil, apperrors.BackendFailure("order history response has an unknown shape")
}

// postJSON posts a JSON payload and decodes the JSON reply into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Wrap(err, "call "+path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, serviceName)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &shapeError{path: path, err: err}
	}
	return nil
}

// shapeError marks a 200 reply whose body did not decode into the expected
// shape. Some callers degrade gracefully on these instead of failing.
type shapeError struct {
	path string
	err  error
}

func (e *shapeError) Error() string {
	return fmt.Sprintf("unexpected %s response shape: %v", e.path, e.err)
}

func (e *shapeError) Unwrap() error {
	return e.err
}

func isShapeError(err error) bool {
	var se *shapeError
	return errors.As(err, &se)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
