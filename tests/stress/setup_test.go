// Package stress runs the quote checkout against a throwaway PostgreSQL
// container and hammers the paths that must stay correct under concurrency:
// coupon usage limits and coupon code uniqueness.
package stress

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/model"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/pricing"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/repository"
	"github.com/fairyhunter13/tattoo-studio-quotes/internal/service"
	"github.com/fairyhunter13/tattoo-studio-quotes/pkg/database"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=testdb",
			"listen_addresses='*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}

	hostAndPort := resource.GetHostPort("5432/tcp")
	databaseURL := fmt.Sprintf("postgres://testuser:testpass@%s/testdb?sslmode=disable&pool_max_conns=50", hostAndPort)

	log.Println("Connecting to database on url:", databaseURL)

	_ = resource.Expire(180) // Tell docker to kill the container after 180 seconds

	// Retry connection
	pool.MaxWait = 120 * time.Second
	if err = pool.Retry(func() error {
		var err error
		testPool, err = pgxpool.New(context.Background(), databaseURL)
		if err != nil {
			return err
		}
		return testPool.Ping(context.Background())
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	// Same migrations the API applies on boot
	if err := database.Migrate(context.Background(), testPool); err != nil {
		log.Fatalf("Could not run migrations: %s", err)
	}

	code := m.Run()

	testPool.Close()
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}

	os.Exit(code)
}

func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		"TRUNCATE TABLE coupon_redemptions, quotes, coupons, studio_settings CASCADE")
	if err != nil {
		t.Fatalf("Failed to cleanup tables: %v", err)
	}
}

type services struct {
	coupons *service.CouponService
	quotes  *service.QuoteService
}

// newServices wires the real repositories against the container database.
func newServices() services {
	couponRepo := repository.NewCouponRepository(testPool)
	redemptionRepo := repository.NewRedemptionRepository(testPool)
	settings := service.NewSettingsService(repository.NewSettingsRepository(testPool), model.StudioSettings{
		StudioName: "Stress Studio",
		Currency:   "USD",
		Pricing: pricing.Config{
			Materials: pricing.MaterialRates{
				NeedlePerCm2: 0.05, InkPerCm2: 0.10, FilmPerCm2: 0.02,
				OintmentPerCm2: 0.03, GlovePerPair: 2.5, OtherFlat: 5,
			},
			Complexities:        map[string]float64{"simple": 1.0, "medium": 1.3},
			BodyParts:           map[string]float64{"arm": 1.0},
			HourlyRate:          150,
			ProfitMarginPercent: 30,
		},
	})
	return services{
		coupons: service.NewCouponService(couponRepo, redemptionRepo, nil),
		quotes: service.NewQuoteService(testPool, repository.NewQuoteRepository(testPool),
			couponRepo, redemptionRepo, settings, nil),
	}
}

func quoteRequest(code string) *model.QuoteRequest {
	w, h, hours := 10.0, 10.0, 2.0
	return &model.QuoteRequest{
		Input:      pricing.Input{Width: &w, Height: &h, Complexity: "simple", TimeHours: &hours},
		ClientName: "Walk-in",
		CouponCode: code,
	}
}

func createLimitedCoupon(t *testing.T, svc services, owner, code string, limit int) *model.Coupon {
	t.Helper()
	value := 10.0
	c, err := svc.coupons.Create(context.Background(), owner, &model.CreateCouponRequest{
		Code:       code,
		Type:       "percentage",
		Value:      &value,
		UsageLimit: &limit,
	})
	if err != nil {
		t.Fatalf("Failed to create coupon %s: %v", code, err)
	}
	return c
}

// usage returns the stored usage counter and the number of redemption rows.
func usage(t *testing.T, owner, code string) (usageCount, redemptions int) {
	t.Helper()
	ctx := context.Background()
	err := testPool.QueryRow(ctx,
		"SELECT usage_count FROM coupons WHERE owner_id = $1 AND upper(code) = upper($2)",
		owner, code).Scan(&usageCount)
	if err != nil {
		t.Fatalf("Failed to read usage_count: %v", err)
	}
	err = testPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions r JOIN coupons c ON c.id = r.coupon_id
		 WHERE c.owner_id = $1 AND upper(c.code) = upper($2)`,
		owner, code).Scan(&redemptions)
	if err != nil {
		t.Fatalf("Failed to count redemptions: %v", err)
	}
	return usageCount, redemptions
}
