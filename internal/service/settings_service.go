package service

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
)

// SettingsRepositoryInterface defines the interface for studio settings data access.
type SettingsRepositoryInterface interface {
	Get(ctx context.Context, ownerID string) (*model.StudioSettings, error)
	Upsert(ctx context.Context, ownerID string, settings *model.StudioSettings) error
}

// SettingsService resolves the pricing configuration a studio calculates with.
type SettingsService struct {
	repo     SettingsRepositoryInterface
	defaults model.StudioSettings
}

// NewSettingsService creates a SettingsService that falls back to defaults for
// owners who never saved their own settings.
func NewSettingsService(repo SettingsRepositoryInterface, defaults model.StudioSettings) *SettingsService {
	return &SettingsService{repo: repo, defaults: defaults}
}

// Get returns the owner's stored settings, or a copy of the defaults.
func (s *SettingsService) Get(ctx context.Context, ownerID string) (*model.StudioSettings, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}

	stored, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if stored != nil {
		return stored, nil
	}

	defaults := s.defaults
	defaults.Pricing.Complexities = maps.Clone(s.defaults.Pricing.Complexities)
	defaults.Pricing.BodyParts = maps.Clone(s.defaults.Pricing.BodyParts)
	defaults.UpdatedAt = nil
	return &defaults, nil
}

// Update validates and stores the owner's settings.
// Returns a *pricing.ValidationError if the pricing config cannot be calculated with.
func (s *SettingsService) Update(ctx context.Context, ownerID string, settings *model.StudioSettings) (*model.StudioSettings, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	if settings == nil {
		return nil, ErrInvalidRequest
	}
	if err := settings.Pricing.Validate(); err != nil {
		return nil, err
	}

	settings.StudioName = strings.TrimSpace(settings.StudioName)
	settings.Currency = strings.TrimSpace(settings.Currency)
	if err := s.repo.Upsert(ctx, ownerID, settings); err != nil {
		return nil, fmt.Errorf("upsert settings: %w", err)
	}
	return settings, nil
}
