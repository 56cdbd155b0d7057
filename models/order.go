package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Location is the delivery address attached to an order
type Location struct {
	ID          uint    `json:"id"`
	Country     string  `json:"country"`
	Region      string  `json:"region"`
	District    string  `json:"district"`
	Street      string  `json:"street"`
	House       string  `json:"house"`
	PostalCode  string  `json:"postalCode"`
	FullAddress string  `json:"fullAddress"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Created     string  `json:"created"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ID        uint            `json:"id"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	Color     *string         `json:"color"`
	Price     decimal.Decimal `json:"price"`
	Images    []string        `json:"images"`
	IsPartial bool            `json:"is_partial"`
	IsThere   json.RawMessage `json:"is_there"` // either false or {status, supplier_requests}
	Feature   json.RawMessage `json:"feature"`
}

// Order is a customer order as returned by the backend
type Order struct {
	ID                    uint            `json:"id"`
	Status                string          `json:"status"`
	Location              *Location       `json:"location"`
	Receive               string          `json:"receive"`
	Payment               string          `json:"payment"`
	UserFullName          string          `json:"user_full_name"`
	Name                  string          `json:"name"`
	PhoneNumber           string          `json:"phone_number"`
	AdditionalPhoneNumber string          `json:"additional_phone_number"`
	ItemsDetail           []OrderItem     `json:"items_detail"`
	Price                 decimal.Decimal `json:"price"`
	Created               string          `json:"created"`
}
