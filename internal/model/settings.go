package model

import (
	"time"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/pricing"
)

// StudioSettings is the per-owner configuration the calculator runs with
type StudioSettings struct {
	StudioName string         `json:"studio_name" validate:"max=255"`
	Currency   string         `json:"currency" validate:"max=8"`
	Pricing    pricing.Config `json:"pricing"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"` // Nil when defaults are in use
}
