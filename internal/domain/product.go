package domain

// Product is a catalog entry as served by the backend's product listing.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       Paise  `json:"price"`
	Image       string `json:"image,omitempty"`
	Stock       int    `json:"stock"`
	Category    string `json:"category,omitempty"`
}

// InStock reports whether the product can currently be added to a cart.
func (p Product) InStock() bool {
	return p.Stock > 0
}
