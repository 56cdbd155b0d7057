package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ProductImage is an image attached to a product
type ProductImage struct {
	Image   string `json:"image"`
	Product uint   `json:"product"`
}

// Product is a catalog product as returned by the backend
type Product struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	BuyPrice    decimal.NullDecimal `json:"buy_price"`
	Price       decimal.NullDecimal `json:"price"`
	OldPrice    decimal.NullDecimal `json:"old_price"`
	Images      []ProductImage      `json:"images"`
	Colors      json.RawMessage     `json:"colors"`
	Features    json.RawMessage     `json:"features"`
	Category    json.RawMessage     `json:"category"` // id or name depending on the endpoint
}
