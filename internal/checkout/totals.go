// Package checkout computes order totals and submits orders. The pricing
// rules mirror the storefront's established behavior: catalog prices already
// include 18% GST, the tax line on receipts shows that included share,
// orders under the free-shipping threshold pay a flat fee, and the amount
// charged is subtotal plus shipping.
package checkout

import (
	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
)

const (
	// TaxRatePercent is the GST share displayed on receipts. It is already
	// part of the catalog price and never added on top.
	TaxRatePercent = 18

	// FreeShippingThreshold is the subtotal at which shipping becomes free.
	FreeShippingThreshold domain.Paise = 29900

	// ShippingFee applies below the threshold.
	ShippingFee domain.Paise = 4000
)

// Totals is the complete price breakdown for a cart.
type Totals struct {
	Subtotal domain.Paise `json:"subtotal"`
	Tax      domain.Paise `json:"tax"`
	Shipping domain.Paise `json:"shipping"`
	Total    domain.Paise `json:"total"`
}

// ComputeTotals prices a cart. Tax is informational: the grand total is
// subtotal plus shipping only.
func ComputeTotals(cart domain.Cart) Totals {
	subtotal := cart.Subtotal()

	shipping := domain.Paise(0)
	if subtotal > 0 && subtotal < FreeShippingThreshold {
		shipping = ShippingFee
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      subtotal * TaxRatePercent / 100,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}
