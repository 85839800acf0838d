package service

import (
	"errors"
	"fmt"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/coupon"
)

var (
	// ErrCouponExists is returned when attempting to create a coupon whose code is already taken
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExhausted is returned when a commit would push usage past the coupon's limit
	ErrCouponExhausted = errors.New("coupon usage limit reached")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrQuoteNotFound is returned when a quote cannot be found for the acting user
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrMissingOwner is returned when an operation is attempted without an acting user
	ErrMissingOwner = errors.New("owner id is required")
)

// CouponRejectedError is returned when a quote is committed with a coupon that
// fails validation. Reason carries the first failing check.
type CouponRejectedError struct {
	Code    string
	Reason  coupon.Reason
	Message string
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.Reason)
}
