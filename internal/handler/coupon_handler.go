package handler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, ownerID string, req *model.CreateCouponRequest) (*model.Coupon, error)
	GetByCode(ctx context.Context, ownerID, code string) (*model.CouponResponse, error)
	List(ctx context.Context, ownerID string) ([]model.Coupon, error)
	SetActive(ctx context.Context, ownerID, code string, active bool) (*model.Coupon, error)
	Validate(ctx context.Context, ownerID, code string, orderValue float64) (*model.CouponCheck, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// CreateCoupon handles POST /api/coupons requests to create a new coupon.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest

	// Parse JSON body
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	created, err := h.service.Create(c.Context(), ownerID(c), &req)
	if err != nil {
		return writeServiceError(c, err, "failed to create coupon")
	}

	log.Info().
		Str("owner_id", ownerID(c)).
		Str("coupon_code", created.Code).
		Str("coupon_type", string(created.Type)).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListCoupons handles GET /api/coupons requests.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.Context(), ownerID(c))
	if err != nil {
		return writeServiceError(c, err, "failed to list coupons")
	}
	if coupons == nil {
		coupons = []model.Coupon{}
	}
	return c.JSON(model.CouponListResponse{Coupons: coupons})
}

// GetCoupon handles GET /api/coupons/:code requests to retrieve coupon details.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return badRequest(c, "invalid request: code is required")
	}

	coupon, err := h.service.GetByCode(c.Context(), ownerID(c), code)
	if err != nil {
		return writeServiceError(c, err, "failed to get coupon")
	}

	log.Debug().
		Str("coupon_code", coupon.Code).
		Int("usage_count", coupon.UsageCount).
		Int("redemptions", len(coupon.RedeemedQuotes)).
		Msg("coupon retrieved")

	return c.JSON(coupon)
}

// SetCouponActive handles PATCH /api/coupons/:code requests to toggle a coupon.
func (h *CouponHandler) SetCouponActive(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return badRequest(c, "invalid request: code is required")
	}

	var req model.SetCouponActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	coupon, err := h.service.SetActive(c.Context(), ownerID(c), code, *req.IsActive)
	if err != nil {
		return writeServiceError(c, err, "failed to update coupon")
	}
	return c.JSON(coupon)
}

// ValidateCoupon handles POST /api/coupons/validate requests. A rejected coupon
// is still a 200: the check result carries the reason.
func (h *CouponHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	check, err := h.service.Validate(c.Context(), ownerID(c), req.Code, *req.OrderValue)
	if err != nil {
		return writeServiceError(c, err, "failed to validate coupon")
	}
	return c.JSON(check)
}
