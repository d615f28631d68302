package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaise(t *testing.T) {
	cases := []struct {
		in   string
		want Paise
	}{
		{"100.00", 10000},
		{"100", 10000},
		{"100.5", 10050},
		{"0.99", 99},
		{"1999.00", 199900},
		{"-40", -4000},
	}
	for _, tc := range cases {
		got, err := ParsePaise(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParsePaise("abc")
	assert.Error(t, err)
	_, err = ParsePaise("")
	assert.Error(t, err)
}

func TestPaise_JSONRoundTrip(t *testing.T) {
	// The backend sends prices as both numbers and strings.
	var fromNumber struct {
		Price Paise `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price": 100.5}`), &fromNumber))
	assert.Equal(t, Paise(10050), fromNumber.Price)

	var fromString struct {
		Price Paise `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price": "1999.00"}`), &fromString))
	assert.Equal(t, Paise(199900), fromString.Price)

	out, err := json.Marshal(Paise(29000))
	require.NoError(t, err)
	assert.Equal(t, "290.00", string(out))
}

func TestFlexInt64(t *testing.T) {
	var v struct {
		ID       FlexInt64 `json:"id"`
		Quantity FlexInt64 `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id": "42", "quantity": 3}`), &v))
	assert.Equal(t, FlexInt64(42), v.ID)
	assert.Equal(t, FlexInt64(3), v.Quantity)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"quantity":3}`, string(out))
}

func TestCart_Subtotal(t *testing.T) {
	cart := Cart{Items: []LineItem{
		{ID: 1, Price: 10000, Quantity: 2},
		{ID: 2, Price: 5000, Quantity: 1},
	}}
	assert.Equal(t, Paise(25000), cart.Subtotal())
	assert.Equal(t, 3, cart.ItemCount())
}

func TestCart_FindItemIndex(t *testing.T) {
	cart := Cart{Items: []LineItem{{ID: 5}, {ID: 9}}}
	assert.Equal(t, 1, cart.FindItemIndex(9))
	assert.Equal(t, -1, cart.FindItemIndex(7))
}

func TestParseIdentity(t *testing.T) {
	id, ok := ParseIdentity([]byte(`{"id": "12", "firstname": "Asha", "role": "user"}`))
	require.True(t, ok)
	assert.Equal(t, FlexInt64(12), id.ID)
	assert.Equal(t, Session{UserID: 12, IsAuthenticated: true}, id.Session())

	_, ok = ParseIdentity([]byte(`not json`))
	assert.False(t, ok)

	_, ok = ParseIdentity([]byte(`{"email": "x@y.z"}`))
	assert.False(t, ok, "record without id must not authenticate")

	assert.Equal(t, Session{}, Identity{}.Session())
}
