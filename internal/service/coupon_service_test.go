package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/coupon"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/database"
)

// mockCouponRepository is a mock implementation of CouponRepositoryInterface.
type mockCouponRepository struct {
	insertFn             func(ctx context.Context, c *model.Coupon) error
	getByCodeFn          func(ctx context.Context, ownerID, code string) (*model.Coupon, error)
	getByCodeForUpdateFn func(ctx context.Context, tx database.TxQuerier, ownerID, code string) (*model.Coupon, error)
	listFn               func(ctx context.Context, ownerID string) ([]model.Coupon, error)
	setActiveFn          func(ctx context.Context, ownerID, code string, active bool) error
	incrementUsageFn     func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error
}

func (m *mockCouponRepository) Insert(ctx context.Context, c *model.Coupon) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, c)
	}
	return nil
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, ownerID, code)
	}
	return nil, nil
}

func (m *mockCouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, ownerID, code string) (*model.Coupon, error) {
	if m.getByCodeForUpdateFn != nil {
		return m.getByCodeForUpdateFn(ctx, tx, ownerID, code)
	}
	return nil, ErrCouponNotFound
}

func (m *mockCouponRepository) List(ctx context.Context, ownerID string) ([]model.Coupon, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return []model.Coupon{}, nil
}

func (m *mockCouponRepository) SetActive(ctx context.Context, ownerID, code string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, ownerID, code, active)
	}
	return nil
}

func (m *mockCouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
	if m.incrementUsageFn != nil {
		return m.incrementUsageFn(ctx, tx, id)
	}
	return nil
}

// mockRedemptionRepository is a mock implementation of RedemptionRepositoryInterface.
type mockRedemptionRepository struct {
	quotesByCouponFn func(ctx context.Context, couponID uuid.UUID) ([]uuid.UUID, error)
	insertFn         func(ctx context.Context, tx database.TxQuerier, couponID, quoteID uuid.UUID) error
}

func (m *mockRedemptionRepository) QuotesByCoupon(ctx context.Context, couponID uuid.UUID) ([]uuid.UUID, error) {
	if m.quotesByCouponFn != nil {
		return m.quotesByCouponFn(ctx, couponID)
	}
	return []uuid.UUID{}, nil
}

func (m *mockRedemptionRepository) Insert(ctx context.Context, tx database.TxQuerier, couponID, quoteID uuid.UUID) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, couponID, quoteID)
	}
	return nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
	committed  bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}

func boolPtr(b bool) *bool {
	return &b
}

const testOwner = "artist_001"

func TestCouponService_Create_Success(t *testing.T) {
	var captured *model.Coupon
	repo := &mockCouponRepository{
		insertFn: func(ctx context.Context, c *model.Coupon) error {
			captured = c
			return nil
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	created, err := svc.Create(context.Background(), testOwner, &model.CreateCouponRequest{
		Code:       "  summer10 ",
		Type:       "percentage",
		Value:      floatPtr(10),
		UsageLimit: intPtr(5),
	})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Same(t, captured, created)
	assert.Equal(t, "SUMMER10", captured.Code, "code should be normalized")
	assert.Equal(t, testOwner, captured.OwnerID)
	assert.Equal(t, coupon.TypePercentage, captured.Type)
	assert.True(t, captured.IsActive, "coupons are active unless stated otherwise")
	assert.Equal(t, 0, captured.UsageCount)
	assert.NotEqual(t, uuid.Nil, captured.ID)
}

func TestCouponService_Create_Inactive(t *testing.T) {
	var captured *model.Coupon
	repo := &mockCouponRepository{
		insertFn: func(ctx context.Context, c *model.Coupon) error {
			captured = c
			return nil
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	_, err := svc.Create(context.Background(), testOwner, &model.CreateCouponRequest{
		Code:     "LATER",
		Type:     "fixed_amount",
		Value:    floatPtr(25),
		IsActive: boolPtr(false),
	})

	require.NoError(t, err)
	assert.False(t, captured.IsActive)
}

func TestCouponService_Create_InvalidRequests(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		req  *model.CreateCouponRequest
	}{
		{"nil request", nil},
		{"nil value", &model.CreateCouponRequest{Code: "X", Type: "percentage"}},
		{"unknown type", &model.CreateCouponRequest{Code: "X", Type: "bogo", Value: floatPtr(10)}},
		{"zero value", &model.CreateCouponRequest{Code: "X", Type: "fixed_amount", Value: floatPtr(0)}},
		{"percentage over 100", &model.CreateCouponRequest{Code: "X", Type: "percentage", Value: floatPtr(120)}},
		{"window inverted", &model.CreateCouponRequest{Code: "X", Type: "percentage", Value: floatPtr(10), ValidFrom: &now, ValidUntil: &yesterday}},
		{"blank code", &model.CreateCouponRequest{Code: "   ", Type: "percentage", Value: floatPtr(10)}},
		{"sub-cent value", &model.CreateCouponRequest{Code: "X", Type: "fixed_amount", Value: floatPtr(12.345)}},
		{"sub-cent minimum order", &model.CreateCouponRequest{Code: "X", Type: "fixed_amount", Value: floatPtr(10), MinOrderValue: floatPtr(99.999)}},
		{"sub-cent max discount", &model.CreateCouponRequest{Code: "X", Type: "percentage", Value: floatPtr(10), MaxDiscount: floatPtr(0.005)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCouponRepository{
				insertFn: func(ctx context.Context, c *model.Coupon) error {
					t.Fatal("insert must not be called for an invalid request")
					return nil
				},
			}
			svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)

			_, err := svc.Create(context.Background(), testOwner, tt.req)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest), "should return ErrInvalidRequest")
		})
	}
}

func TestCouponService_Create_AcceptsCentPrecision(t *testing.T) {
	var stored *model.Coupon
	repo := &mockCouponRepository{
		insertFn: func(ctx context.Context, c *model.Coupon) error {
			stored = c
			return nil
		},
	}
	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)

	c, err := svc.Create(context.Background(), testOwner, &model.CreateCouponRequest{
		Code:          "CENTS",
		Type:          "fixed_amount",
		Value:         floatPtr(12.35),
		MinOrderValue: floatPtr(0.1),
		MaxDiscount:   floatPtr(1000),
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 12.35, c.Value)
	assert.Equal(t, 0.1, *c.MinOrderValue)
}

func TestCouponService_Create_DuplicateCoupon(t *testing.T) {
	repo := &mockCouponRepository{
		insertFn: func(ctx context.Context, c *model.Coupon) error {
			return ErrCouponExists
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	_, err := svc.Create(context.Background(), testOwner, &model.CreateCouponRequest{
		Code:  "SUMMER10",
		Type:  "percentage",
		Value: floatPtr(10),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCouponExists), "error should be ErrCouponExists")
}

func TestCouponService_Create_MissingOwner(t *testing.T) {
	svc := NewCouponService(&mockCouponRepository{}, &mockRedemptionRepository{}, nil)

	_, err := svc.Create(context.Background(), " ", &model.CreateCouponRequest{})

	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestCouponService_GetByCode_NormalizesLookup(t *testing.T) {
	var gotOwner, gotCode string
	repo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
			gotOwner, gotCode = ownerID, code
			return &model.Coupon{Coupon: coupon.Coupon{Code: "SUMMER10"}}, nil
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	c, err := svc.GetByCode(context.Background(), testOwner, " summer10")

	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", c.Code)
	assert.Equal(t, testOwner, gotOwner)
	assert.Equal(t, "SUMMER10", gotCode)
}

func TestCouponService_GetByCode_WithRedemptions(t *testing.T) {
	couponID := uuid.New()
	first, second := uuid.New(), uuid.New()
	repo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
			return &model.Coupon{ID: couponID, Coupon: coupon.Coupon{Code: "TEN", UsageCount: 2}}, nil
		},
	}
	redemptions := &mockRedemptionRepository{
		quotesByCouponFn: func(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
			assert.Equal(t, couponID, id)
			return []uuid.UUID{first, second}, nil
		},
	}

	svc := NewCouponService(repo, redemptions, nil)
	resp, err := svc.GetByCode(context.Background(), testOwner, "TEN")

	require.NoError(t, err)
	assert.Equal(t, 2, resp.UsageCount)
	assert.Equal(t, []uuid.UUID{first, second}, resp.RedeemedQuotes)
}

func TestCouponService_GetByCode_RedemptionError(t *testing.T) {
	dbErr := errors.New("database connection failed")
	repo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
			return &model.Coupon{Coupon: coupon.Coupon{Code: "TEN"}}, nil
		},
	}
	redemptions := &mockRedemptionRepository{
		quotesByCouponFn: func(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
			return nil, dbErr
		},
	}

	svc := NewCouponService(repo, redemptions, nil)
	resp, err := svc.GetByCode(context.Background(), testOwner, "TEN")

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, dbErr)
}

func TestCouponService_GetByCode_NotFound(t *testing.T) {
	svc := NewCouponService(&mockCouponRepository{}, &mockRedemptionRepository{}, nil)

	c, err := svc.GetByCode(context.Background(), testOwner, "NOPE")

	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_GetByCode_RepositoryError(t *testing.T) {
	repoErr := errors.New("database connection failed")
	repo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
			return nil, repoErr
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	_, err := svc.GetByCode(context.Background(), testOwner, "SUMMER10")

	require.Error(t, err)
	assert.True(t, errors.Is(err, repoErr))
	assert.False(t, errors.Is(err, ErrCouponNotFound))
}

func TestCouponService_List(t *testing.T) {
	repo := &mockCouponRepository{
		listFn: func(ctx context.Context, ownerID string) ([]model.Coupon, error) {
			assert.Equal(t, testOwner, ownerID)
			return []model.Coupon{
				{Coupon: coupon.Coupon{Code: "B"}},
				{Coupon: coupon.Coupon{Code: "A"}},
			}, nil
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	coupons, err := svc.List(context.Background(), testOwner)

	require.NoError(t, err)
	assert.Len(t, coupons, 2)
}

func TestCouponService_SetActive(t *testing.T) {
	stored := &model.Coupon{Coupon: coupon.Coupon{Code: "SUMMER10", IsActive: true}}
	repo := &mockCouponRepository{
		setActiveFn: func(ctx context.Context, ownerID, code string, active bool) error {
			assert.Equal(t, "SUMMER10", code)
			stored.IsActive = active
			return nil
		},
		getByCodeFn: func(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
			return stored, nil
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	c, err := svc.SetActive(context.Background(), testOwner, "summer10", false)

	require.NoError(t, err)
	assert.False(t, c.IsActive)
}

func TestCouponService_SetActive_NotFound(t *testing.T) {
	repo := &mockCouponRepository{
		setActiveFn: func(ctx context.Context, ownerID, code string, active bool) error {
			return ErrCouponNotFound
		},
	}

	svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)
	_, err := svc.SetActive(context.Background(), testOwner, "NOPE", true)

	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_Validate(t *testing.T) {
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name       string
		coupon     coupon.Coupon
		orderValue float64
		wantValid  bool
		wantReason coupon.Reason
		wantDisc   float64
		wantFinal  float64
	}{
		{
			name:       "percentage",
			coupon:     coupon.Coupon{Code: "TEN", Type: coupon.TypePercentage, Value: 10, IsActive: true},
			orderValue: 1479,
			wantValid:  true,
			wantDisc:   147.9,
			wantFinal:  1331.1,
		},
		{
			name:       "fixed larger than order",
			coupon:     coupon.Coupon{Code: "BIG", Type: coupon.TypeFixedAmount, Value: 500, IsActive: true},
			orderValue: 200,
			wantValid:  true,
			wantDisc:   200,
			wantFinal:  0,
		},
		{
			name:       "expired",
			coupon:     coupon.Coupon{Code: "OLD", Type: coupon.TypePercentage, Value: 10, IsActive: true, ValidUntil: &past},
			orderValue: 100,
			wantReason: coupon.ReasonExpired,
			wantFinal:  100,
		},
		{
			name:       "below minimum",
			coupon:     coupon.Coupon{Code: "MIN", Type: coupon.TypeFixedAmount, Value: 20, IsActive: true, MinOrderValue: floatPtr(500)},
			orderValue: 499.99,
			wantReason: coupon.ReasonBelowMinimum,
			wantFinal:  499.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCouponRepository{
				getByCodeFn: func(ctx context.Context, ownerID, code string) (*model.Coupon, error) {
					return &model.Coupon{Coupon: tt.coupon}, nil
				},
				incrementUsageFn: func(ctx context.Context, tx database.TxQuerier, id uuid.UUID) error {
					t.Fatal("checking a coupon must not consume a use")
					return nil
				},
			}
			svc := NewCouponService(repo, &mockRedemptionRepository{}, nil)

			check, err := svc.Validate(context.Background(), testOwner, tt.coupon.Code, tt.orderValue)

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, check.Valid)
			assert.Equal(t, tt.wantReason, check.Reason)
			assert.Equal(t, tt.orderValue, check.OriginalPrice)
			assert.InDelta(t, tt.wantDisc, check.Discount, 1e-9)
			assert.InDelta(t, tt.wantFinal, check.FinalPrice, 1e-9)
		})
	}
}

func TestCouponService_Validate_NegativeOrderValue(t *testing.T) {
	svc := NewCouponService(&mockCouponRepository{}, &mockRedemptionRepository{}, nil)

	_, err := svc.Validate(context.Background(), testOwner, "TEN", -1)

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCouponService_Validate_NotFound(t *testing.T) {
	svc := NewCouponService(&mockCouponRepository{}, &mockRedemptionRepository{}, nil)

	_, err := svc.Validate(context.Background(), testOwner, "NOPE", 100)

	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponRejectedError_Message(t *testing.T) {
	err := &CouponRejectedError{Code: "OLD", Reason: coupon.ReasonExpired, Message: "coupon expired"}

	assert.Equal(t, "coupon OLD rejected: expired", err.Error())
}
