package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/coupon"
)

// Coupon represents a studio's coupon as stored in the database
type Coupon struct {
	ID      uuid.UUID `json:"id"`
	OwnerID string    `json:"-"` // Scopes every read and write
	coupon.Coupon
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CouponResponse is the API response DTO for GET /api/coupons/:code
type CouponResponse struct {
	Coupon
	RedeemedQuotes []uuid.UUID `json:"redeemed_quotes"`
}

// CreateCouponRequest is the DTO for creating a coupon
type CreateCouponRequest struct {
	Code          string     `json:"code" validate:"required,notblank,couponcode,max=64"`
	Type          string     `json:"type" validate:"required,coupontype"`
	Value         *float64   `json:"value" validate:"required,gt=0"`
	IsActive      *bool      `json:"is_active"` // Defaults to true
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	UsageLimit    *int       `json:"usage_limit" validate:"omitempty,gte=1"`
	MinOrderValue *float64   `json:"min_order_value" validate:"omitempty,gte=0"`
	MaxDiscount   *float64   `json:"max_discount" validate:"omitempty,gt=0"`
}

// SetCouponActiveRequest is the DTO for PATCH /api/coupons/:code
type SetCouponActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ValidateCouponRequest is the DTO for previewing a coupon against an order value
type ValidateCouponRequest struct {
	Code       string   `json:"code" validate:"required,notblank,max=64"`
	OrderValue *float64 `json:"order_value" validate:"required,gte=0"`
}

// CouponCheck is the outcome of checking a coupon against a price.
// Discount and FinalPrice are only meaningful when Valid is true.
type CouponCheck struct {
	Code          string        `json:"code"`
	Valid         bool          `json:"valid"`
	Reason        coupon.Reason `json:"reason,omitempty"`
	Message       string        `json:"message,omitempty"`
	OriginalPrice float64       `json:"original_price"`
	Discount      float64       `json:"discount"`
	FinalPrice    float64       `json:"final_price"`
}

// CouponListResponse is the API response DTO for GET /api/coupons
type CouponListResponse struct {
	Coupons []Coupon `json:"coupons"`
}
