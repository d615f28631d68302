// Package event publishes cart analytics to Kafka. Analytics are strictly
// best effort: a broker outage must never be visible to a shopper, so every
// publish failure ends at a log line.
package event

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Anuraj-madd/shubhanya-storefront/pkg/kafka"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

const (
	TopicCartEvents = "storefront.cart.events"

	TypeCartUpdated = "cart.updated"
	TypeCartCleared = "cart.cleared"

	aggregateType = "cart"
	source        = "storefront"
)

// CartUpdatedData is the payload of a cart.updated event.
type CartUpdatedData struct {
	UserID    int64        `json:"user_id"`
	ItemCount int          `json:"item_count"`
	Subtotal  domain.Paise `json:"subtotal"`
}

// CartClearedData is the payload of a cart.cleared event.
type CartClearedData struct {
	UserID int64 `json:"user_id"`
}

// Producer emits cart analytics events.
type Producer struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewProducer(producer *kafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{producer: producer, logger: logger}
}

// CartUpdated reports a cart mutation.
func (p *Producer) CartUpdated(ctx context.Context, userID int64, cart domain.Cart) {
	p.publish(ctx, TypeCartUpdated, userID, CartUpdatedData{
		UserID:    userID,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	})
}

// CartCleared reports that a cart became empty.
func (p *Producer) CartCleared(ctx context.Context, userID int64) {
	p.publish(ctx, TypeCartCleared, userID, CartClearedData{UserID: userID})
}

func (p *Producer) publish(ctx context.Context, eventType string, userID int64, data any) {
	event, err := kafka.NewEvent(eventType, strconv.FormatInt(userID, 10), aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "build analytics event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := p.producer.Publish(ctx, TopicCartEvents, event); err != nil {
		p.logger.WarnContext(ctx, "publish analytics event",
			slog.String("event_type", eventType),
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
