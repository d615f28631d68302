package checkout

import (
	"context"
	"log/slog"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/validator"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/backend"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// Backend is the slice of the upstream API checkout needs.
type Backend interface {
	PlaceOrder(ctx context.Context, order backend.PlaceOrderRequest) (backend.OrderConfirmation, error)
}

// Form carries the shipping and payment details collected at checkout.
type Form struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required,len=10,numeric"`
	Address1    string `json:"address1" validate:"required"`
	Address2    string `json:"address2"`
	City        string `json:"city" validate:"required"`
	Pincode     string `json:"pincode" validate:"required,len=6,numeric"`
	PaymentMode string `json:"paymentMode" validate:"required,oneof=cod online"`
}

// Confirmation is returned after a successful order.
type Confirmation struct {
	OrderID   int64  `json:"order_id"`
	OrderDate string `json:"order_date,omitempty"`
	Totals    Totals `json:"totals"`
}

// Service submits validated orders upstream.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

func NewService(b Backend, logger *slog.Logger) *Service {
	return &Service{backend: b, logger: logger}
}

// PlaceOrder validates the form and cart, submits the order, and returns the
// confirmation with the priced totals the customer saw.
func (s *Service) PlaceOrder(ctx context.Context, sess domain.Session, items []domain.LineItem, form Form) (Confirmation, error) {
	if !sess.IsAuthenticated {
		return Confirmation{}, apperrors.Unauthorized("sign in to place an order")
	}
	if err := validator.Validate(form); err != nil {
		return Confirmation{}, err
	}
	if len(items) == 0 {
		return Confirmation{}, apperrors.InvalidInput("cart is empty")
	}

	conf, err := s.backend.PlaceOrder(ctx, backend.PlaceOrderRequest{
		UserID:    sess.UserID,
		CartItems: items,
		FormData: backend.OrderForm{
			Name:        form.Name,
			Phone:       form.Phone,
			Address1:    form.Address1,
			Address2:    form.Address2,
			City:        form.City,
			Pincode:     form.Pincode,
			PaymentMode: form.PaymentMode,
		},
	})
	if err != nil {
		return Confirmation{}, err
	}

	totals := ComputeTotals(domain.Cart{Items: items, Loaded: true})
	s.logger.InfoContext(ctx, "order placed",
		slog.Int64("user_id", sess.UserID),
		slog.Int64("order_id", int64(conf.OrderID)),
		slog.String("payment_mode", form.PaymentMode),
		slog.String("total", totals.Total.Rupees()),
	)

	return Confirmation{
		OrderID:   int64(conf.OrderID),
		OrderDate: conf.OrderDate,
		Totals:    totals,
	}, nil
}
