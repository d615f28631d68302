package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anuraj-madd/shubhanya-storefront/pkg/kafka"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

func TestCartUpdatedEnvelope(t *testing.T) {
	cart := domain.Cart{Items: []domain.LineItem{{ID: 7, Price: 12500, Quantity: 2}}, Loaded: true}

	ev, err := kafka.NewEvent(TypeCartUpdated, "12", aggregateType, source, CartUpdatedData{
		UserID:    12,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	})
	require.NoError(t, err)

	raw, err := ev.Marshal()
	require.NoError(t, err)

	decoded, err := kafka.UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeCartUpdated, decoded.EventType)
	assert.Equal(t, "12", decoded.AggregateID)

	var data CartUpdatedData
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.EqualValues(t, 12, data.UserID)
	assert.Equal(t, 2, data.ItemCount)
	assert.EqualValues(t, 25000, data.Subtotal)
}
