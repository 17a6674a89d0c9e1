package models

import "github.com/shopspring/decimal"

// LineItem is one cart row. The JSON shape is the persisted cart format.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category"`
}

// NewLineItem normalizes a catalog product into a cart row.
func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		ID:       p.Key(),
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image(),
		Quantity: quantity,
		Category: p.CategoryLabel(),
	}
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
