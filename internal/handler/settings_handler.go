package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
)

// SettingsServiceInterface defines the interface for studio settings.
type SettingsServiceInterface interface {
	Get(ctx context.Context, ownerID string) (*model.StudioSettings, error)
	Update(ctx context.Context, ownerID string, settings *model.StudioSettings) (*model.StudioSettings, error)
}

// SettingsHandler handles HTTP requests for studio settings.
type SettingsHandler struct {
	service   SettingsServiceInterface
	validator *validator.Validate
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(svc SettingsServiceInterface, v *validator.Validate) *SettingsHandler {
	return &SettingsHandler{service: svc, validator: v}
}

// GetSettings handles GET /api/settings. Owners who never saved settings get the defaults.
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	s, err := h.service.Get(c.Context(), ownerID(c))
	if err != nil {
		return writeServiceError(c, err, "failed to get settings")
	}
	return c.JSON(s)
}

// UpdateSettings handles PUT /api/settings.
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req model.StudioSettings
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, formatValidationError(err))
	}

	s, err := h.service.Update(c.Context(), ownerID(c), &req)
	if err != nil {
		return writeServiceError(c, err, "failed to update settings")
	}

	log.Info().Str("owner_id", ownerID(c)).Msg("studio settings updated")
	return c.JSON(s)
}
