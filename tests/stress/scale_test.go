package stress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/tattoo-studio-quotes/internal/service"
)

// runScale spreads checkouts over several studios, each with its own limited coupon
// sharing one code. Owners must never consume each other's uses.
func runScale(t *testing.T, studios, requestsPerStudio, limit int) {
	t.Helper()
	cleanupTables(t)

	const code = "SCALE"

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	svc := newServices()
	owners := make([]string, studios)
	for i := range owners {
		owners[i] = fmt.Sprintf("studio_%03d", i)
		createLimitedCoupon(t, svc, owners[i], code, limit)
	}

	var wg sync.WaitGroup
	var unexpected atomic.Int64
	successes := make([]atomic.Int64, studios)
	start := make(chan struct{})

	for i, owner := range owners {
		for j := 0; j < requestsPerStudio; j++ {
			wg.Add(1)
			go func(i int, owner string) {
				defer wg.Done()
				<-start
				_, err := svc.quotes.Create(ctx, owner, quoteRequest(code))
				var rej *service.CouponRejectedError
				switch {
				case err == nil:
					successes[i].Add(1)
				case errors.Is(err, service.ErrCouponExhausted), errors.As(err, &rej):
				default:
					unexpected.Add(1)
					t.Logf("unexpected error for %s: %v", owner, err)
				}
			}(i, owner)
		}
	}

	startTime := time.Now()
	close(start)
	wg.Wait()
	t.Logf("%d checkouts across %d studios in %v", studios*requestsPerStudio, studios, time.Since(startTime))

	assert.Zero(t, unexpected.Load())
	want := min(limit, requestsPerStudio)
	for i, owner := range owners {
		usageCount, redemptions := usage(t, owner, code)
		assert.Equal(t, want, int(successes[i].Load()), "successes for %s", owner)
		assert.Equal(t, want, usageCount, "usage_count for %s", owner)
		assert.Equal(t, want, redemptions, "redemptions for %s", owner)
	}
}

func TestScaleStress100(t *testing.T) {
	runScale(t, 10, 10, 3)
}

func TestScaleStress200(t *testing.T) {
	runScale(t, 20, 10, 7)
}

func TestScaleStress500(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping 500 request stress test in short mode")
	}
	runScale(t, 25, 20, 20)
}
