package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "studio"

// QuoteMetrics counts calculator and coupon outcomes.
// A nil *QuoteMetrics is valid and records nothing.
type QuoteMetrics struct {
	calculations *prometheus.CounterVec
	couponChecks *prometheus.CounterVec
	quotesSaved  *prometheus.CounterVec
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quote_calculations_total",
		Help:      "Quote calculations by outcome.",
	}, []string{"outcome"})
	couponChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_checks_total",
		Help:      "Coupon validations by result.",
	}, []string{"result"})
	quotesSaved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_saved_total",
		Help:      "Quotes committed, split by whether a coupon was redeemed.",
	}, []string{"coupon"})
	reg.MustRegister(calculations, couponChecks, quotesSaved)
	return &QuoteMetrics{
		calculations: calculations,
		couponChecks: couponChecks,
		quotesSaved:  quotesSaved,
	}
}

// ObserveCalculation records one calculator run.
func (m *QuoteMetrics) ObserveCalculation(ok bool) {
	if m == nil || m.calculations == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "invalid"
	}
	m.calculations.WithLabelValues(outcome).Inc()
}

// ObserveCouponCheck records one coupon validation. reason is ignored when valid.
func (m *QuoteMetrics) ObserveCouponCheck(valid bool, reason string) {
	if m == nil || m.couponChecks == nil {
		return
	}
	m.couponChecks.WithLabelValues(resultLabel(valid, reason)).Inc()
}

// IncQuoteSaved records one committed quote.
func (m *QuoteMetrics) IncQuoteSaved(withCoupon bool) {
	if m == nil || m.quotesSaved == nil {
		return
	}
	label := "none"
	if withCoupon {
		label = "redeemed"
	}
	m.quotesSaved.WithLabelValues(label).Inc()
}

func resultLabel(valid bool, reason string) string {
	if valid {
		return "valid"
	}
	if reason == "" {
		return "unknown"
	}
	return reason
}
