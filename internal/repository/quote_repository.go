package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/service"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/database"
)

const quoteColumns = `id, owner_id, client_name, client_phone, status, notes, input, result,
	coupon_code, original_price, discount, final_price, created_at, updated_at`

// QuoteRepository provides data access for saved quotes using pgx.
// Input and result are stored as JSONB snapshots.
type QuoteRepository struct {
	pool PoolInterface
}

// NewQuoteRepository creates a new QuoteRepository with the given pool.
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// NewQuoteRepositoryWithPool creates a new QuoteRepository with a custom pool interface.
// This is primarily used for testing.
func NewQuoteRepositoryWithPool(pool PoolInterface) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Insert inserts a quote within a transaction and fills in its timestamps.
func (r *QuoteRepository) Insert(ctx context.Context, tx database.TxQuerier, q *model.Quote) error {
	input, err := json.Marshal(q.Input)
	if err != nil {
		return fmt.Errorf("marshal quote input: %w", err)
	}
	result, err := json.Marshal(q.Result)
	if err != nil {
		return fmt.Errorf("marshal quote result: %w", err)
	}

	query := `INSERT INTO quotes (id, owner_id, client_name, client_phone, status, notes, input, result,
		coupon_code, original_price, discount, final_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		q.ID, q.OwnerID, q.ClientName, q.ClientPhone, string(q.Status), q.Notes, input, result,
		q.CouponCode, q.OriginalPrice, q.Discount, q.FinalPrice,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgNumericOutOfRange {
			return fmt.Errorf("%w: price out of range", service.ErrInvalidRequest)
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// GetByID retrieves one of the owner's quotes.
// Returns nil, nil if the quote is not found (service layer handles this).
func (r *QuoteRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*model.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE owner_id = $1 AND id = $2`

	q, err := scanQuote(r.pool.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote %s: %w", id, err)
	}
	return q, nil
}

// ListByOwner returns a page of the owner's quotes, newest first.
func (r *QuoteRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE owner_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := []model.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote rows: %w", err)
	}
	return quotes, nil
}

// Update sets status and/or notes on one of the owner's quotes. Nil arguments
// leave the column unchanged.
// Returns service.ErrQuoteNotFound if no quote matched.
func (r *QuoteRepository) Update(ctx context.Context, ownerID string, id uuid.UUID, status *model.QuoteStatus, notes *string) (*model.Quote, error) {
	query := `UPDATE quotes SET status = COALESCE($3, status), notes = COALESCE($4, notes), updated_at = now()
		WHERE owner_id = $1 AND id = $2
		RETURNING ` + quoteColumns

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	q, err := scanQuote(r.pool.QueryRow(ctx, query, ownerID, id, statusArg, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("update quote %s: %w", id, err)
	}
	return q, nil
}

// Delete removes one of the owner's quotes.
// Returns service.ErrQuoteNotFound if no quote matched.
func (r *QuoteRepository) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotes WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete quote %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrQuoteNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (*model.Quote, error) {
	var q model.Quote
	var status string
	var input, result []byte
	err := row.Scan(
		&q.ID,
		&q.OwnerID,
		&q.ClientName,
		&q.ClientPhone,
		&status,
		&q.Notes,
		&input,
		&result,
		&q.CouponCode,
		&q.OriginalPrice,
		&q.Discount,
		&q.FinalPrice,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Status = model.QuoteStatus(status)
	if err := json.Unmarshal(input, &q.Input); err != nil {
		return nil, fmt.Errorf("decode quote input: %w", err)
	}
	if err := json.Unmarshal(result, &q.Result); err != nil {
		return nil, fmt.Errorf("decode quote result: %w", err)
	}
	return &q, nil
}
