package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/coupon"
)

var couponCodePattern = regexp.MustCompile(`^\s*[A-Za-z0-9_-]+\s*$`)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Register custom "notblank" validator - rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// Coupon codes are typed by hand and read aloud, so keep them to letters, digits, '-' and '_'
	_ = v.RegisterValidation("couponcode", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return couponCodePattern.MatchString(str)
	})

	_ = v.RegisterValidation("coupontype", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		switch coupon.Type(str) {
		case coupon.TypePercentage, coupon.TypeFixedAmount:
			return true
		}
		return false
	})

	return v
}
