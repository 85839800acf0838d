package coupon

import "time"

// Application is one coupon applied to one price.
type Application struct {
	Code          string  `json:"code"`
	OriginalPrice float64 `json:"original_price"`
	Discount      float64 `json:"discount"`
	FinalPrice    float64 `json:"final_price"`
}

// Apply computes the discount c grants on originalPrice.
func Apply(c Coupon, originalPrice float64) Application {
	d := Discount(c, originalPrice)
	return Application{
		Code:          NormalizeCode(c.Code),
		OriginalPrice: originalPrice,
		Discount:      d,
		FinalPrice:    originalPrice - d,
	}
}

// Checkout holds a quote price and at most one applied coupon. Applying a new
// coupon replaces the previous one and is always computed from OriginalPrice.
type Checkout struct {
	OriginalPrice float64
	Applied       *Application
}

// NewCheckout starts a checkout with no coupon applied.
func NewCheckout(price float64) *Checkout {
	return &Checkout{OriginalPrice: price}
}

// Apply validates c and, if valid, replaces the current coupon. A rejected
// coupon leaves the checkout unchanged.
func (k *Checkout) Apply(c Coupon, now time.Time) Validation {
	v := Validate(c, k.OriginalPrice, now)
	if !v.Valid {
		return v
	}
	a := Apply(c, k.OriginalPrice)
	k.Applied = &a
	return v
}

// Remove drops the applied coupon, restoring OriginalPrice.
func (k *Checkout) Remove() {
	k.Applied = nil
}

// Discount is the amount currently taken off.
func (k *Checkout) Discount() float64 {
	if k.Applied == nil {
		return 0
	}
	return k.Applied.Discount
}

// FinalPrice is OriginalPrice less the applied discount.
func (k *Checkout) FinalPrice() float64 {
	if k.Applied == nil {
		return k.OriginalPrice
	}
	return k.Applied.FinalPrice
}

// Code is the applied coupon code, or "" when none is applied.
func (k *Checkout) Code() string {
	if k.Applied == nil {
		return ""
	}
	return k.Applied.Code
}
