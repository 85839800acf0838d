package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/messaging"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/pricing"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/service"
)

// jsonFieldNames maps request struct fields to the names clients send.
var jsonFieldNames = map[string]string{
	"Code":          "code",
	"Type":          "type",
	"Value":         "value",
	"UsageLimit":    "usage_limit",
	"MinOrderValue": "min_order_value",
	"MaxDiscount":   "max_discount",
	"IsActive":      "is_active",
	"OrderValue":    "order_value",
	"ClientName":    "client_name",
	"ClientPhone":   "client_phone",
	"Notes":         "notes",
	"CouponCode":    "coupon_code",
	"Status":        "status",
	"StudioName":    "studio_name",
	"Currency":      "currency",
}

// formatValidationError converts validator errors to client-facing messages.
// Only the first failing field is reported.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field, ok := jsonFieldNames[fe.Field()]
	if !ok {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "gt":
		return "invalid request: " + field + " must be greater than " + fe.Param()
	case "gte":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "couponcode":
		return "invalid request: " + field + " may only contain letters, digits, '-' and '_'"
	case "coupontype":
		return "invalid request: " + field + " must be percentage or fixed_amount"
	case "oneof":
		return "invalid request: " + field + " must be one of " + fe.Param()
	}
	return "invalid request: " + field + " is invalid"
}

// writeServiceError maps service errors to HTTP responses.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(c *fiber.Ctx, err error, failure string) error {
	var verr *pricing.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
	}

	var rejected *service.CouponRejectedError
	if errors.As(err, &rejected) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  rejected.Message,
			"code":   rejected.Code,
			"reason": rejected.Reason,
		})
	}

	switch {
	case errors.Is(err, service.ErrMissingOwner):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing " + UserIDHeader + " header"})
	case errors.Is(err, service.ErrCouponNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
	case errors.Is(err, service.ErrQuoteNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "quote not found"})
	case errors.Is(err, service.ErrCouponExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already exists"})
	case errors.Is(err, service.ErrCouponExhausted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon usage limit reached"})
	case errors.Is(err, messaging.ErrInvalidPhone):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: phone number is invalid"})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	log.Error().
		Err(err).
		Str("request_id", requestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("owner_id", ownerID(c)).
		Msg(failure)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
