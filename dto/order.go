package dto

import (
	"strings"
	"time"

	"github.com/crystal-dz/storefront_api/model"
)

const DefaultCurrency = "DZD"

type CreateOrderRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100" example:"Amine Benali"`
	Phone       string `json:"phone" validate:"required,dz_phone" example:"0551234567"`
	Wilaya      string `json:"wilaya" validate:"required,min=1,max=50" example:"Alger"`
	Baladia     string `json:"baladia" validate:"required,min=1,max=100" example:"Bab Ezzouar"`
	Address     string `json:"address" validate:"max=255" example:"Cité 1200 logements, bloc 5"`
	ChildName   string `json:"child_name" validate:"required,min=1,max=50" example:"Yasmine"`
	Quantity    int    `json:"quantity" validate:"required,min=1,max=10" example:"2"`
	ProductName string `json:"product_name" validate:"omitempty,max=100" example:"Crystal Ball"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url,max=512"`
	Currency    string `json:"currency,omitempty" validate:"omitempty,oneof=DZD"`

	// Ignored; the server computes the total.
	TotalPrice *float64 `json:"total_price,omitempty" validate:"-"`
}

// Normalize trims user input and applies defaults before validation.
func (r *CreateOrderRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Wilaya = strings.TrimSpace(r.Wilaya)
	r.Baladia = strings.TrimSpace(r.Baladia)
	r.Address = strings.TrimSpace(r.Address)
	r.ChildName = strings.TrimSpace(r.ChildName)
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
}

func (r CreateOrderRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CreateOrderResponse struct {
	Success   bool          `json:"success"`
	Order     *model.Order  `json:"order"`
	RateLimit RateLimitInfo `json:"rate_limit"`
}

type RateLimitErrorData struct {
	Reason    string     `json:"reason"`
	Remaining int        `json:"remaining"`
	ResetTime *time.Time `json:"reset_time,omitempty"`
}

type OrderListResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending pending_cod confirmed shipped delivered returned cancelled"`
}

func (r UpdateOrderStatusRequest) Validate() error {
	return GetValidator().Struct(r)
}

type PriceTier struct {
	Quantity        int   `json:"quantity"`
	DiscountPercent int   `json:"discount_percent"`
	TotalPrice      int64 `json:"total_price"`
}

type ProductResponse struct {
	Name        string      `json:"name"`
	UnitPrice   int64       `json:"unit_price"`
	Currency    string      `json:"currency"`
	MaxPerOrder int         `json:"max_per_order"`
	Tiers       []PriceTier `json:"tiers"`
}
