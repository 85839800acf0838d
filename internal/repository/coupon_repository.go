package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/coupon"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/service"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/database"
)

const (
	pgUniqueViolation   = "23505"
	pgCheckViolation    = "23514"
	pgNumericOutOfRange = "22003"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const couponColumns = `id, owner_id, code, type, value, is_active, valid_from, valid_until,
	usage_limit, usage_count, min_order_value, max_discount, created_at, updated_at`

// CouponRepository provides data access for coupons using pgx.
// Codes are stored normalized and matched case-insensitively per owner.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon and fills in its timestamps.
// Returns service.ErrCouponExists if the owner already has a coupon with the same code.
func (r *CouponRepository) Insert(ctx context.Context, c *model.Coupon) error {
	query := `INSERT INTO coupons (id, owner_id, code, type, value, is_active, valid_from, valid_until,
		usage_limit, usage_count, min_order_value, max_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.ID, c.OwnerID, coupon.NormalizeCode(c.Code), string(c.Type), c.Value, c.IsActive,
		c.ValidFrom, c.ValidUntil, c.UsageLimit, c.UsageCount, c.MinOrderValue, c.MaxDiscount,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return service.ErrCouponExists
			case pgNumericOutOfRange:
				return fmt.Errorf("%w: amount out of range", service.ErrInvalidRequest)
			}
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves one of the owner's coupons by code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE owner_id = $1 AND upper(code) = upper($2)`

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, ownerID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return c, nil
}

// GetByCodeForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, ownerID, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE owner_id = $1 AND upper(code) = upper($2) FOR UPDATE`

	c, err := scanCoupon(tx.QueryRow(ctx, query, ownerID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return c, nil
}

// List returns all of the owner's coupons, newest first.
// On success, returns an empty slice (not nil) when the owner has none.
func (r *CouponRepository) List(ctx context.Context, ownerID string) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// SetActive enables or disables one of the owner's coupons.
// Returns service.ErrCouponNotFound if no coupon matched.
func (r *CouponRepository) SetActive(ctx context.Context, ownerID, code string, active bool) error {
	query := `UPDATE coupons SET is_active = $3, updated_at = now() WHERE owner_id = $1 AND upper(code) = upper($2)`

	tag, err := r.pool.Exec(ctx, query, ownerID, code, active)
	if err != nil {
		return fmt.Errorf("set coupon %s active: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// IncrementUsage counts one use of a coupon.
// Must be called within a transaction after locking the row. The guard in the
// WHERE clause keeps usage_count within usage_limit even without the lock.
// Returns service.ErrCouponExhausted if the limit is already reached.
func (r *CouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	query := `UPDATE coupons SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return service.ErrCouponExhausted
		}
		return fmt.Errorf("increment usage for coupon %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponExhausted
	}
	return nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	var kind string
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Code,
		&kind,
		&c.Value,
		&c.IsActive,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.UsageLimit,
		&c.UsageCount,
		&c.MinOrderValue,
		&c.MaxDiscount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Type = coupon.Type(kind)
	return &c, nil
}
