package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/pricing"
)

// QuoteStatus tracks where a saved quote is in its conversation with the client.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// Quote is a persisted snapshot of one calculation, its inputs and any coupon applied
type Quote struct {
	ID            uuid.UUID      `json:"id"`
	OwnerID       string         `json:"-"`
	ClientName    string         `json:"client_name"`
	ClientPhone   string         `json:"client_phone"`
	Notes         string         `json:"notes"`
	Status        QuoteStatus    `json:"status"`
	Input         pricing.Input  `json:"input"`
	Result        pricing.Result `json:"result"`
	CouponCode    *string        `json:"coupon_code,omitempty"`
	OriginalPrice float64        `json:"original_price"`
	Discount      float64        `json:"discount"`
	FinalPrice    float64        `json:"final_price"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// QuoteRequest is the DTO for previewing and saving a quote.
// Required calculator fields (width, height, complexity, time_hours) are checked
// by the calculator itself so every missing field is reported at once.
type QuoteRequest struct {
	pricing.Input
	ClientName  string `json:"client_name" validate:"max=255"`
	ClientPhone string `json:"client_phone" validate:"max=32"`
	Notes       string `json:"notes" validate:"max=2000"`
	CouponCode  string `json:"coupon_code" validate:"omitempty,couponcode,max=64"`
}

// QuotePreview is the API response DTO for POST /api/quotes/preview
type QuotePreview struct {
	Result        pricing.Result `json:"result"`
	OriginalPrice float64        `json:"original_price"`
	Discount      float64        `json:"discount"`
	FinalPrice    float64        `json:"final_price"`
	Coupon        *CouponCheck   `json:"coupon,omitempty"`
}

// UpdateQuoteRequest is the DTO for PATCH /api/quotes/:id
type UpdateQuoteRequest struct {
	Status *string `json:"status" validate:"omitempty,oneof=draft sent accepted rejected"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// QuoteListResponse is the API response DTO for GET /api/quotes
type QuoteListResponse struct {
	Quotes []Quote `json:"quotes"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ShareQuoteResponse is the API response DTO for GET /api/quotes/:id/share
type ShareQuoteResponse struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}
