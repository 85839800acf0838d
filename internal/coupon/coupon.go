// Package coupon validates discount codes and computes the discount they grant.
// Nothing here performs I/O; usage counting is the caller's job at commit time.
package coupon

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Type is the kind of discount a coupon grants.
type Type string

const (
	TypePercentage  Type = "percentage"
	TypeFixedAmount Type = "fixed_amount"
)

// Reason explains why a coupon was rejected.
type Reason string

const (
	ReasonInactive     Reason = "inactive"
	ReasonNotYetValid  Reason = "not yet valid"
	ReasonExpired      Reason = "expired"
	ReasonExhausted    Reason = "exhausted"
	ReasonBelowMinimum Reason = "below minimum order value"
)

// Coupon is a discount rule identified by a case-insensitive code.
type Coupon struct {
	Code          string     `json:"code"`
	Type          Type       `json:"type"`
	Value         float64    `json:"value"`
	IsActive      bool       `json:"is_active"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	UsageLimit    *int       `json:"usage_limit,omitempty"`
	UsageCount    int        `json:"usage_count"`
	MinOrderValue *float64   `json:"min_order_value,omitempty"`
	MaxDiscount   *float64   `json:"max_discount,omitempty"`
}

// Validation is the outcome of Validate. Reason and Message are empty when Valid.
type Validation struct {
	Valid   bool   `json:"valid"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// NormalizeCode returns the match key for a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks c against orderValue at instant now. Checks run in a fixed
// order and the first failure wins.
func Validate(c Coupon, orderValue float64, now time.Time) Validation {
	if !c.IsActive {
		return reject(ReasonInactive, "coupon is inactive")
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return reject(ReasonNotYetValid, fmt.Sprintf("coupon is valid from %s", c.ValidFrom.Format(time.RFC3339)))
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return reject(ReasonExpired, fmt.Sprintf("coupon expired at %s", c.ValidUntil.Format(time.RFC3339)))
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return reject(ReasonExhausted, "coupon usage limit reached")
	}
	if c.MinOrderValue != nil && orderValue < *c.MinOrderValue {
		return reject(ReasonBelowMinimum, fmt.Sprintf("minimum order value is %.2f", *c.MinOrderValue))
	}
	return Validation{Valid: true}
}

func reject(reason Reason, message string) Validation {
	return Validation{Valid: false, Reason: reason, Message: message}
}

// Discount computes the amount c takes off orderValue. It assumes Validate
// already passed. The result is always within [0, orderValue].
func Discount(c Coupon, orderValue float64) float64 {
	if orderValue <= 0 || c.Value <= 0 {
		return 0
	}

	var discount float64
	switch c.Type {
	case TypePercentage:
		discount = orderValue * c.Value / 100
		if c.MaxDiscount != nil {
			discount = math.Min(discount, math.Max(*c.MaxDiscount, 0))
		}
	case TypeFixedAmount:
		discount = c.Value
	default:
		return 0
	}

	return math.Min(discount, orderValue)
}
