package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/database"
)

// RedemptionPoolInterface defines the database operations needed by RedemptionRepository.
type RedemptionPoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RedemptionRepository records which saved quotes consumed a coupon use.
// Rows outlive the quote they point at so deleting a quote never gives a use back.
type RedemptionRepository struct {
	pool RedemptionPoolInterface
}

// NewRedemptionRepository creates a new RedemptionRepository with the given pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// NewRedemptionRepositoryWithPool creates a new RedemptionRepository with a custom pool interface.
// This is primarily used for testing.
func NewRedemptionRepositoryWithPool(pool RedemptionPoolInterface) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// QuotesByCoupon retrieves the ids of all quotes that redeemed a coupon, oldest first.
// On success, returns an empty slice (not nil) when the coupon was never redeemed.
// On error, returns nil and the wrapped error.
func (r *RedemptionRepository) QuotesByCoupon(ctx context.Context, couponID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT quote_id FROM coupon_redemptions WHERE coupon_id = $1 ORDER BY created_at, quote_id`

	rows, err := r.pool.Query(ctx, query, couponID)
	if err != nil {
		return nil, fmt.Errorf("get redemptions for coupon %s: %w", couponID, err)
	}
	defer rows.Close()

	quoteIDs := []uuid.UUID{}
	for rows.Next() {
		var quoteID uuid.UUID
		if err := rows.Scan(&quoteID); err != nil {
			return nil, fmt.Errorf("scan redemption quote_id: %w", err)
		}
		quoteIDs = append(quoteIDs, quoteID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemption rows: %w", err)
	}

	return quoteIDs, nil
}

// Insert records a redemption within a transaction.
func (r *RedemptionRepository) Insert(ctx context.Context, tx database.TxQuerier, couponID, quoteID uuid.UUID) error {
	query := `INSERT INTO coupon_redemptions (coupon_id, quote_id) VALUES ($1, $2)`

	if _, err := tx.Exec(ctx, query, couponID, quoteID); err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}
