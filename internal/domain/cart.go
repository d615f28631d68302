package domain

// LineItem is one product entry in the cart. The product id is the unique key
// within a cart: at most one line item per product at any time.
type LineItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Price    Paise  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Cart is a snapshot of the line items mirrored from the backend, together
// with the loaded flag exposed to consuming views.
type Cart struct {
	Items  []LineItem `json:"items"`
	Loaded bool       `json:"loaded"`
}

// Subtotal returns the sum of price x quantity over all items. Prices are
// tax-inclusive, so this is the amount the shipping threshold applies to.
func (c Cart) Subtotal() Paise {
	var total Paise
	for _, item := range c.Items {
		total += item.Price * Paise(item.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all line items.
func (c Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItemIndex returns the index of the line item for the given product id,
// or -1 if the product is not in the cart.
func (c Cart) FindItemIndex(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}
