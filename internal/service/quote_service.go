package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/coupon"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/messaging"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/pricing"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/database"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/metrics"
)

const (
	defaultQuoteListLimit = 20
	maxQuoteListLimit     = 100
)

// QuoteRepositoryInterface defines the interface for quote data access.
type QuoteRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, q *model.Quote) error
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*model.Quote, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Quote, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, status *model.QuoteStatus, notes *string) (*model.Quote, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// SettingsProvider resolves the settings a studio calculates with.
type SettingsProvider interface {
	Get(ctx context.Context, ownerID string) (*model.StudioSettings, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// QuoteService calculates, persists and shares quotes.
type QuoteService struct {
	pool           TxBeginner
	quoteRepo      QuoteRepositoryInterface
	couponRepo     CouponRepositoryInterface
	redemptionRepo RedemptionRepositoryInterface
	settings       SettingsProvider
	metrics        *metrics.QuoteMetrics
	now            func() time.Time
}

// NewQuoteService creates a new QuoteService with the given pool and dependencies.
func NewQuoteService(pool *pgxpool.Pool, quoteRepo QuoteRepositoryInterface, couponRepo CouponRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, settings SettingsProvider, m *metrics.QuoteMetrics) *QuoteService {
	return NewQuoteServiceWithTxBeginner(pool, quoteRepo, couponRepo, redemptionRepo, settings, m)
}

// NewQuoteServiceWithTxBeginner creates a QuoteService with a custom TxBeginner.
// Primarily used for testing.
func NewQuoteServiceWithTxBeginner(pool TxBeginner, quoteRepo QuoteRepositoryInterface, couponRepo CouponRepositoryInterface, redemptionRepo RedemptionRepositoryInterface, settings SettingsProvider, m *metrics.QuoteMetrics) *QuoteService {
	return &QuoteService{
		pool:           pool,
		quoteRepo:      quoteRepo,
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		settings:       settings,
		metrics:        m,
		now:            time.Now,
	}
}

// Preview calculates a quote and, when a coupon code is given, checks it
// against the calculated price. Nothing is written and no coupon use is consumed.
// Returns a *pricing.ValidationError (possibly wrapped) when the input cannot be priced.
func (s *QuoteService) Preview(ctx context.Context, ownerID string, req *model.QuoteRequest) (*model.QuotePreview, error) {
	res, err := s.calculate(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	preview := &model.QuotePreview{
		Result:        res.Rounded(),
		OriginalPrice: pricing.Round(res.FinalPrice),
		FinalPrice:    pricing.Round(res.FinalPrice),
	}

	code := coupon.NormalizeCode(req.CouponCode)
	if code == "" {
		return preview, nil
	}

	c, err := s.couponRepo.GetByCode(ctx, ownerID, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if c == nil {
		return nil, ErrCouponNotFound
	}

	check := checkCoupon(c.Coupon, res.FinalPrice, s.now())
	s.metrics.ObserveCouponCheck(check.Valid, string(check.Reason))
	preview.Coupon = check
	if check.Valid {
		preview.Discount = check.Discount
		preview.FinalPrice = check.FinalPrice
	}
	return preview, nil
}

// Create calculates and persists a quote. When a coupon code is given, the
// coupon row is locked, re-validated, its usage counted and the redemption
// recorded inside the same transaction as the quote insert. Abandoned previews
// never consume uses.
// Returns:
//   - *pricing.ValidationError if the input cannot be priced
//   - ErrCouponNotFound if the coupon doesn't exist
//   - *CouponRejectedError if the coupon fails validation
//   - ErrCouponExhausted if a concurrent commit took the last use
func (s *QuoteService) Create(ctx context.Context, ownerID string, req *model.QuoteRequest) (*model.Quote, error) {
	res, err := s.calculate(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	checkout := coupon.NewCheckout(res.FinalPrice)
	var couponCode *string
	var couponID uuid.UUID

	if code := coupon.NormalizeCode(req.CouponCode); code != "" {
		// 1. Lock the coupon row (SELECT FOR UPDATE)
		c, err := s.couponRepo.GetByCodeForUpdate(ctx, tx, ownerID, code)
		if err != nil {
			if errors.Is(err, ErrCouponNotFound) {
				return nil, ErrCouponNotFound
			}
			return nil, fmt.Errorf("get coupon for update: %w", err)
		}

		// 2. Re-validate against the locked row
		v := checkout.Apply(c.Coupon, s.now())
		s.metrics.ObserveCouponCheck(v.Valid, string(v.Reason))
		if !v.Valid {
			return nil, &CouponRejectedError{Code: code, Reason: v.Reason, Message: v.Message}
		}

		// 3. Count the use
		if err := s.couponRepo.IncrementUsage(ctx, tx, c.ID); err != nil {
			if errors.Is(err, ErrCouponExhausted) {
				return nil, ErrCouponExhausted
			}
			return nil, fmt.Errorf("increment coupon usage: %w", err)
		}
		couponCode = &code
		couponID = c.ID
	}

	// 4. Persist the snapshot; the stored figures are the ones the client sees
	q := &model.Quote{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		ClientName:    strings.TrimSpace(req.ClientName),
		ClientPhone:   strings.TrimSpace(req.ClientPhone),
		Notes:         req.Notes,
		Status:        model.QuoteStatusDraft,
		Input:         req.Input,
		Result:        res.Rounded(),
		CouponCode:    couponCode,
		OriginalPrice: pricing.Round(checkout.OriginalPrice),
		Discount:      pricing.Round(checkout.Discount()),
		FinalPrice:    pricing.Round(checkout.FinalPrice()),
	}
	if err := s.quoteRepo.Insert(ctx, tx, q); err != nil {
		return nil, fmt.Errorf("insert quote: %w", err)
	}

	// 5. Record the redemption against the saved quote
	if couponCode != nil {
		if err := s.redemptionRepo.Insert(ctx, tx, couponID, q.ID); err != nil {
			return nil, fmt.Errorf("record redemption: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.metrics.IncQuoteSaved(couponCode != nil)
	return q, nil
}

// Get retrieves one of the owner's quotes.
// Returns ErrQuoteNotFound if the quote doesn't exist or belongs to someone else.
func (s *QuoteService) Get(ctx context.Context, ownerID string, id uuid.UUID) (*model.Quote, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	q, err := s.quoteRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if q == nil {
		return nil, ErrQuoteNotFound
	}
	return q, nil
}

// List returns a page of the owner's quotes, newest first, and the page bounds used.
func (s *QuoteService) List(ctx context.Context, ownerID string, limit, offset int) (*model.QuoteListResponse, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	if limit <= 0 {
		limit = defaultQuoteListLimit
	}
	if limit > maxQuoteListLimit {
		limit = maxQuoteListLimit
	}
	if offset < 0 {
		offset = 0
	}

	quotes, err := s.quoteRepo.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	return &model.QuoteListResponse{Quotes: quotes, Limit: limit, Offset: offset}, nil
}

// Update changes a quote's status and/or notes. The priced snapshot is never touched.
func (s *QuoteService) Update(ctx context.Context, ownerID string, id uuid.UUID, req *model.UpdateQuoteRequest) (*model.Quote, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	if req == nil || (req.Status == nil && req.Notes == nil) {
		return nil, ErrInvalidRequest
	}

	var status *model.QuoteStatus
	if req.Status != nil {
		st := model.QuoteStatus(*req.Status)
		switch st {
		case model.QuoteStatusDraft, model.QuoteStatusSent, model.QuoteStatusAccepted, model.QuoteStatusRejected:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, *req.Status)
		}
		status = &st
	}

	q, err := s.quoteRepo.Update(ctx, ownerID, id, status, req.Notes)
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("update quote: %w", err)
	}
	return q, nil
}

// Delete removes one of the owner's quotes. Coupon usage is not given back.
func (s *QuoteService) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrMissingOwner
	}
	if err := s.quoteRepo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return ErrQuoteNotFound
		}
		return fmt.Errorf("delete quote: %w", err)
	}
	return nil
}

// ShareLink formats a saved quote as a chat message and a WhatsApp link for phone.
// When phone is empty the quote's client phone is used.
// Returns messaging.ErrInvalidPhone if no usable phone number is available.
func (s *QuoteService) ShareLink(ctx context.Context, ownerID string, id uuid.UUID, phone string) (*model.ShareQuoteResponse, error) {
	q, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if strings.TrimSpace(phone) == "" {
		phone = q.ClientPhone
	}

	msg := messaging.QuoteMessage{
		StudioName:    settings.StudioName,
		ClientName:    q.ClientName,
		Area:          q.Result.Area,
		BodyPart:      q.Input.BodyPart,
		Complexity:    q.Input.Complexity,
		OriginalPrice: q.OriginalPrice,
		Discount:      q.Discount,
		FinalPrice:    q.FinalPrice,
		Currency:      settings.Currency,
	}
	if q.Input.Width != nil {
		msg.Width = *q.Input.Width
	}
	if q.Input.Height != nil {
		msg.Height = *q.Input.Height
	}
	if q.Input.TimeHours != nil {
		msg.TimeHours = *q.Input.TimeHours
	}
	if q.CouponCode != nil {
		msg.CouponCode = *q.CouponCode
	}

	text := messaging.FormatQuoteMessage(msg)
	link, err := messaging.WhatsAppLink(phone, text)
	if err != nil {
		return nil, err
	}
	return &model.ShareQuoteResponse{Message: text, Link: link}, nil
}

func (s *QuoteService) calculate(ctx context.Context, ownerID string, req *model.QuoteRequest) (*pricing.Result, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil {
		return nil, ErrInvalidRequest
	}

	settings, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	res, err := pricing.Calculate(req.Input, settings.Pricing)
	s.metrics.ObserveCalculation(err == nil)
	if err != nil {
		return nil, err
	}
	return res, nil
}
