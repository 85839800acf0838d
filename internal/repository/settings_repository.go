package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
)

// SettingsRepository stores one settings snapshot per owner using pgx.
type SettingsRepository struct {
	pool PoolInterface
}

// NewSettingsRepository creates a new SettingsRepository with the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// NewSettingsRepositoryWithPool creates a new SettingsRepository with a custom pool interface.
// This is primarily used for testing.
func NewSettingsRepositoryWithPool(pool PoolInterface) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the owner's stored settings.
// Returns nil, nil if the owner never saved any (service layer falls back to defaults).
func (r *SettingsRepository) Get(ctx context.Context, ownerID string) (*model.StudioSettings, error) {
	var raw []byte
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT settings, updated_at FROM studio_settings WHERE owner_id = $1`,
		ownerID,
	).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var s model.StudioSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.UpdatedAt = &updatedAt
	return &s, nil
}

// Upsert replaces the owner's settings snapshot and sets settings.UpdatedAt.
func (r *SettingsRepository) Upsert(ctx context.Context, ownerID string, settings *model.StudioSettings) error {
	snapshot := *settings
	snapshot.UpdatedAt = nil
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	query := `INSERT INTO studio_settings (owner_id, settings) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = now()
		RETURNING updated_at`

	var updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query, ownerID, raw).Scan(&updatedAt); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	settings.UpdatedAt = &updatedAt
	return nil
}
