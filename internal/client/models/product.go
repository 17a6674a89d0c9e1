package models

import "github.com/shopspring/decimal"

// DefaultCategoryLabel is shown for products whose category was not populated.
const DefaultCategoryLabel = "Product"

// Product is the catalog record as returned by the backend. Only the fields
// the cart and wishlist need are modeled.
type Product struct {
	ID        string          `json:"_id,omitempty"`
	AltID     string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	Images    []string        `json:"images,omitempty"`
	Category  Ref             `json:"category"`
	Stock     int             `json:"stock,omitempty"`
	Unit      string          `json:"unit,omitempty"`
}

// Key is the product identifier: "_id" when present, else "id".
func (p Product) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.AltID
}

// Image picks the display image: first gallery image, then the thumbnail.
func (p Product) Image() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Thumbnail
}

func (p Product) CategoryLabel() string {
	if p.Category.Populated() {
		return p.Category.Name
	}
	return DefaultCategoryLabel
}
