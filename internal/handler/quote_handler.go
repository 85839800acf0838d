package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
)

// QuoteServiceInterface defines the interface for quote business logic.
type QuoteServiceInterface interface {
	Preview(ctx context.Context, ownerID string, req *model.QuoteRequest) (*model.QuotePreview, error)
	Create(ctx context.Context, ownerID string, req *model.QuoteRequest) (*model.Quote, error)
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*model.Quote, error)
	List(ctx context.Context, ownerID string, limit, offset int) (*model.QuoteListResponse, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, req *model.UpdateQuoteRequest) (*model.Quote, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
	ShareLink(ctx context.Context, ownerID string, id uuid.UUID, phone string) (*model.ShareQuoteResponse, error)
}

// QuoteHandler handles HTTP requests for quote operations.
type QuoteHandler struct {
	service   QuoteServiceInterface
	validator *validator.Validate
}

// NewQuoteHandler creates a new QuoteHandler with the given service and validator.
func NewQuoteHandler(svc QuoteServiceInterface, v *validator.Validate) *QuoteHandler {
	return &QuoteHandler{service: svc, validator: v}
}

func (h *QuoteHandler) parseQuoteRequest(c *fiber.Ctx) (*model.QuoteRequest, error) {
	var req model.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return nil, badRequest(c, formatValidationError(err))
	}
	return &req, nil
}

// quoteID parses the :id route parameter. ok is false when a response was already written.
func quoteID(c *fiber.Ctx) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false, badRequest(c, "invalid request: id must be a UUID")
	}
	return id, true, nil
}

// PreviewQuote handles POST /api/quotes/preview requests. Nothing is persisted.
func (h *QuoteHandler) PreviewQuote(c *fiber.Ctx) error {
	req, err := h.parseQuoteRequest(c)
	if req == nil {
		return err
	}

	preview, err := h.service.Preview(c.Context(), ownerID(c), req)
	if err != nil {
		return writeServiceError(c, err, "failed to preview quote")
	}
	return c.JSON(preview)
}

// CreateQuote handles POST /api/quotes requests. A coupon on the request is
// redeemed in the same transaction as the insert.
func (h *QuoteHandler) CreateQuote(c *fiber.Ctx) error {
	req, err := h.parseQuoteRequest(c)
	if req == nil {
		return err
	}

	q, err := h.service.Create(c.Context(), ownerID(c), req)
	if err != nil {
		return writeServiceError(c, err, "failed to save quote")
	}

	evt := log.Info().
		Str("request_id", requestID(c)).
		Str("owner_id", ownerID(c)).
		Str("quote_id", q.ID.String()).
		Float64("final_price", q.FinalPrice)
	if q.CouponCode != nil {
		evt = evt.Str("coupon_code", *q.CouponCode)
	}
	evt.Msg("quote saved")

	return c.Status(fiber.StatusCreated).JSON(q)
}

// ListQuotes handles GET /api/quotes?limit=&offset= requests.
func (h *QuoteHandler) ListQuotes(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	resp, err := h.service.List(c.Context(), ownerID(c), limit, offset)
	if err != nil {
		return writeServiceError(c, err, "failed to list quotes")
	}
	return c.JSON(resp)
}

// GetQuote handles GET /api/quotes/:id requests.
func (h *QuoteHandler) GetQuote(c *fiber.Ctx) error {
	id, ok, err := quoteID(c)
	if !ok {
		return err
	}

	q, err := h.service.Get(c.Context(), ownerID(c), id)
	if err != nil {
		return writeServiceError(c, err, "failed to get quote")
	}
	return c.JSON(q)
}

// UpdateQuote handles PATCH /api/quotes/:id requests for status and notes.
func (h *QuoteHandler) UpdateQuote(c *fiber.Ctx) error {
	id, ok, err := quoteID(c)
	if !ok {
		return err
	}

	var req model.UpdateQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	q, err := h.service.Update(c.Context(), ownerID(c), id, &req)
	if err != nil {
		return writeServiceError(c, err, "failed to update quote")
	}
	return c.JSON(q)
}

// DeleteQuote handles DELETE /api/quotes/:id requests.
func (h *QuoteHandler) DeleteQuote(c *fiber.Ctx) error {
	id, ok, err := quoteID(c)
	if !ok {
		return err
	}

	if err := h.service.Delete(c.Context(), ownerID(c), id); err != nil {
		return writeServiceError(c, err, "failed to delete quote")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ShareQuote handles GET /api/quotes/:id/share?phone= requests.
func (h *QuoteHandler) ShareQuote(c *fiber.Ctx) error {
	id, ok, err := quoteID(c)
	if !ok {
		return err
	}

	share, err := h.service.ShareLink(c.Context(), ownerID(c), id, c.Query("phone"))
	if err != nil {
		return writeServiceError(c, err, "failed to build share link")
	}
	return c.JSON(share)
}
