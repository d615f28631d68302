// Package http exposes the storefront over REST. Handlers are the Go
// rendition of the original pages: they read cart state through the per-user
// store, never call the upstream API directly for cart data, and translate
// the store's boolean results into status codes the frontend can act on.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/httputil"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/validator"

	"github.com/go-chi/chi/v5"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/cart"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/checkout"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/clientstore"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// AuthService authenticates against the upstream API.
type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.Identity, error)
}

// CatalogService lists products.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (domain.Product, error)
}

// OrderService fetches order history.
type OrderService interface {
	History(ctx context.Context, sess domain.Session) ([]domain.Order, error)
}

// CheckoutService places orders.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, sess domain.Session, items []domain.LineItem, form checkout.Form) (checkout.Confirmation, error)
}

// SessionReader resolves and persists the signed-in identity.
type SessionReader interface {
	Session(ctx context.Context) domain.Session
	Identity(ctx context.Context) (domain.Identity, bool)
	SaveIdentity(ctx context.Context, id domain.Identity) error
	ClearIdentity(ctx context.Context) error
}

// Handler carries the dependencies of all route handlers.
type Handler struct {
	reader   SessionReader
	carts    *cart.Manager
	auth     AuthService
	catalog  CatalogService
	orders   OrderService
	checkout CheckoutService
	client   clientstore.Store
	logger   *slog.Logger
}

func NewHandler(
	reader SessionReader,
	carts *cart.Manager,
	auth AuthService,
	catalog CatalogService,
	orders OrderService,
	co CheckoutService,
	client clientstore.Store,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		reader:   reader,
		carts:    carts,
		auth:     auth,
		catalog:  catalog,
		orders:   orders,
		checkout: co,
		client:   client,
		logger:   logger,
	}
}

// resolveSession prefers the X-User-ID header set by the edge proxy, falling
// back to the persisted identity record.
func (h *Handler) resolveSession(r *http.Request) domain.Session {
	if raw := r.Header.Get("X-User-ID"); raw != "" {
		if userID, err := strconv.ParseInt(raw, 10, 64); err == nil && userID > 0 {
			return domain.Session{UserID: userID, IsAuthenticated: true}
		}
	}
	return h.reader.Session(r.Context())
}

func (h *Handler) store(r *http.Request) *cart.Store {
	return h.carts.Get(h.resolveSession(r))
}

// GetSession handles GET /session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.resolveSession(r)})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User     domain.Identity `json:"user"`
	Redirect string          `json:"redirect"`
}

// Login handles POST /auth/login. On success the identity record lands in
// client storage, which wakes every session watcher, and the reply carries
// the page to return to when one was captured earlier.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	identity, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.reader.SaveIdentity(r.Context(), identity); err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	redirect := cart.ConsumeReturnURL(r.Context(), h.client)
	if redirect == "" {
		redirect = "/products"
	}
	if identity.Role == "admin" {
		redirect = "/admin/dashboard"
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: loginResponse{
		User:     identity,
		Redirect: redirect,
	}})
}

// Logout handles POST /auth/logout: the identity record goes away and the
// user's cart store is disposed.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(r)
	if err := h.reader.ClearIdentity(r.Context()); err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}
	if sess.IsAuthenticated {
		h.carts.Dispose(sess.UserID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProducts handles GET /products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// GetProduct handles GET /products/{productID}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid product id"), h.logger)
		return
	}

	product, err := h.catalog.Product(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

type cartResponse struct {
	Items  []domain.LineItem `json:"items"`
	Loaded bool              `json:"loaded"`
	Totals checkout.Totals   `json:"totals"`
}

func cartPayload(store *cart.Store) cartResponse {
	snap := store.Snapshot()
	return cartResponse{
		Items:  snap.Items,
		Loaded: snap.Loaded,
		Totals: checkout.ComputeTotals(snap),
	}
}

// GetCart handles GET /cart. The first read triggers the initial fetch;
// subsequent reads serve the mirror.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	if !store.Loaded() {
		store.FetchCart(r.Context())
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartPayload(store)})
}

// RefreshCart handles POST /cart/refresh: an explicit resync with the
// backend.
func (h *Handler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	store.FetchCart(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartPayload(store)})
}

type addItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	ReturnURL string `json:"return_url"`
}

// AddItem handles POST /cart/items. A signed-out caller gets a 401 whose
// body names the login page; the page they were on is captured for the
// post-login redirect.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	if req.ReturnURL != "" {
		ctx = cart.WithReturnURL(ctx, req.ReturnURL)
	}

	store := h.store(r)
	if !store.Session().IsAuthenticated {
		store.AddToCart(ctx, req.ProductID)
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "LOGIN_REQUIRED", Message: "sign in to add items to your cart"},
		})
		return
	}

	if !store.AddToCart(ctx, req.ProductID) {
		httputil.WriteError(w, r, apperrors.BackendFailure("could not add item to cart"), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartPayload(store)})
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// UpdateItem handles PUT /cart/items/{productID}. The reply reflects the
// optimistic state; the upstream write happens behind the debounce window.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid product id"), h.logger)
		return
	}

	var req updateItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	store := h.store(r)
	if !store.Session().IsAuthenticated {
		httputil.WriteError(w, r, apperrors.Unauthorized("sign in to change your cart"), h.logger)
		return
	}

	if !store.UpdateQuantity(r.Context(), productID, req.Quantity) {
		httputil.WriteError(w, r, apperrors.InvalidInput("product is not in the cart"), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartPayload(store)})
}

// RemoveItem handles DELETE /cart/items/{productID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid product id"), h.logger)
		return
	}

	store := h.store(r)
	if !store.Session().IsAuthenticated {
		httputil.WriteError(w, r, apperrors.Unauthorized("sign in to change your cart"), h.logger)
		return
	}

	if !store.RemoveFromCart(r.Context(), productID) {
		httputil.WriteError(w, r, apperrors.BackendFailure("could not remove item from cart"), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartPayload(store)})
}

// Checkout handles POST /checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if err := validator.DecodeAndValidate(r, &form); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	store := h.store(r)
	if !store.Loaded() {
		store.FetchCart(r.Context())
	}

	conf, err := h.checkout.PlaceOrder(r.Context(), store.Session(), store.Items(), form)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// The backend empties the cart as part of order placement.
	store.FetchCart(r.Context())
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: conf})
}

// ListOrders handles GET /orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.History(r.Context(), h.resolveSession(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: orders})
}
