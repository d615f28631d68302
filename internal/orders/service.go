// Package orders exposes a user's order history.
package orders

import (
	"context"
	"log/slog"

	apperrors "github.com/Anuraj-madd/shubhanya-storefront/pkg/errors"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

// Backend is the slice of the upstream API order history needs.
type Backend interface {
	FetchOrders(ctx context.Context, userID int64) ([]domain.Order, error)
}

// Service fetches order history for signed-in users.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

func NewService(b Backend, logger *slog.Logger) *Service {
	return &Service{backend: b, logger: logger}
}

// History returns the user's past orders, newest first as delivered by the
// backend. A user with no orders gets an empty slice, not an error.
func (s *Service) History(ctx context.Context, sess domain.Session) ([]domain.Order, error) {
	if !sess.IsAuthenticated {
		return nil, apperrors.Unauthorized("sign in to view orders")
	}

	orders, err := s.backend.FetchOrders(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
