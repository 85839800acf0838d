package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/coupon"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/pricing"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/database"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/metrics"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, c *model.Coupon) error
	GetByCode(ctx context.Context, ownerID, code string) (*model.Coupon, error)
	GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, ownerID, code string) (*model.Coupon, error)
	List(ctx context.Context, ownerID string) ([]model.Coupon, error)
	SetActive(ctx context.Context, ownerID, code string, active bool) error
	IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

// RedemptionRepositoryInterface defines the interface for coupon redemption data access.
type RedemptionRepositoryInterface interface {
	QuotesByCoupon(ctx context.Context, couponID uuid.UUID) ([]uuid.UUID, error)
	Insert(ctx context.Context, tx database.TxQuerier, couponID, quoteID uuid.UUID) error
}

// CouponService provides business logic for coupon operations.
type CouponService struct {
	couponRepo     CouponRepositoryInterface
	redemptionRepo RedemptionRepositoryInterface
	metrics        *metrics.QuoteMetrics
	now            func() time.Time
}

// NewCouponService creates a new CouponService with the given repositories.
func NewCouponService(couponRepo CouponRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, m *metrics.QuoteMetrics) *CouponService {
	return &CouponService{
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		metrics:        m,
		now:            time.Now,
	}
}

// Create creates a new coupon for ownerID from the request.
// Returns ErrCouponExists if the owner already has a coupon with the same code.
// Returns ErrInvalidRequest if request data is nil, incomplete or inconsistent.
func (s *CouponService) Create(ctx context.Context, ownerID string, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil || req.Value == nil {
		return nil, ErrInvalidRequest
	}

	kind := coupon.Type(req.Type)
	if kind != coupon.TypePercentage && kind != coupon.TypeFixedAmount {
		return nil, fmt.Errorf("%w: unsupported coupon type %q", ErrInvalidRequest, req.Type)
	}
	if *req.Value <= 0 {
		return nil, fmt.Errorf("%w: value must be greater than zero", ErrInvalidRequest)
	}
	if kind == coupon.TypePercentage && *req.Value > 100 {
		return nil, fmt.Errorf("%w: percentage must not exceed 100", ErrInvalidRequest)
	}
	for _, amount := range []struct {
		field string
		value *float64
	}{
		{"value", req.Value},
		{"min_order_value", req.MinOrderValue},
		{"max_discount", req.MaxDiscount},
	} {
		if amount.value != nil && !isWholeCents(*amount.value) {
			return nil, fmt.Errorf("%w: %s must have at most 2 decimal places", ErrInvalidRequest, amount.field)
		}
	}
	if req.ValidFrom != nil && req.ValidUntil != nil && req.ValidUntil.Before(*req.ValidFrom) {
		return nil, fmt.Errorf("%w: valid_until is before valid_from", ErrInvalidRequest)
	}

	code := coupon.NormalizeCode(req.Code)
	if code == "" {
		return nil, ErrInvalidRequest
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	c := &model.Coupon{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Coupon: coupon.Coupon{
			Code:          code,
			Type:          kind,
			Value:         *req.Value,
			IsActive:      active,
			ValidFrom:     req.ValidFrom,
			ValidUntil:    req.ValidUntil,
			UsageLimit:    req.UsageLimit,
			MinOrderValue: req.MinOrderValue,
			MaxDiscount:   req.MaxDiscount,
		},
	}
	if err := s.couponRepo.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// isWholeCents reports whether v is stored without rounding in a NUMERIC(12,2) column.
func isWholeCents(v float64) bool {
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(2))
}

// GetByCode retrieves one of the owner's coupons by its case-insensitive code,
// along with the quotes that redeemed it.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, ownerID, code string) (*model.CouponResponse, error) {
	c, err := s.lookup(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}

	quoteIDs, err := s.redemptionRepo.QuotesByCoupon(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("get redemptions: %w", err)
	}

	return &model.CouponResponse{Coupon: *c, RedeemedQuotes: quoteIDs}, nil
}

func (s *CouponService) lookup(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	c, err := s.couponRepo.GetByCode(ctx, ownerID, coupon.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if c == nil {
		return nil, ErrCouponNotFound
	}
	return c, nil
}

// List returns all of the owner's coupons, newest first.
func (s *CouponService) List(ctx context.Context, ownerID string) ([]model.Coupon, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	coupons, err := s.couponRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// SetActive enables or disables a coupon and returns its new state.
func (s *CouponService) SetActive(ctx context.Context, ownerID, code string, active bool) (*model.Coupon, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	code = coupon.NormalizeCode(code)
	if err := s.couponRepo.SetActive(ctx, ownerID, code, active); err != nil {
		return nil, err
	}
	return s.lookup(ctx, ownerID, code)
}

// Validate checks a coupon against orderValue without consuming a use.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) Validate(ctx context.Context, ownerID, code string, orderValue float64) (*model.CouponCheck, error) {
	if orderValue < 0 {
		return nil, ErrInvalidRequest
	}
	c, err := s.lookup(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	check := checkCoupon(c.Coupon, orderValue, s.now())
	s.metrics.ObserveCouponCheck(check.Valid, string(check.Reason))
	return check, nil
}

// checkCoupon runs the coupon engine against price and rounds the outcome for display.
func checkCoupon(c coupon.Coupon, price float64, now time.Time) *model.CouponCheck {
	checkout := coupon.NewCheckout(price)
	v := checkout.Apply(c, now)
	return &model.CouponCheck{
		Code:          coupon.NormalizeCode(c.Code),
		Valid:         v.Valid,
		Reason:        v.Reason,
		Message:       v.Message,
		OriginalPrice: pricing.Round(checkout.OriginalPrice),
		Discount:      pricing.Round(checkout.Discount()),
		FinalPrice:    pricing.Round(checkout.FinalPrice()),
	}
}
