// Package pricing computes tattoo quotes from geometric, material and labor inputs.
//
// Calculate is pure: it performs no I/O and reads no package state. Studio-specific
// rates and option lists travel in an explicit Config so the same input always
// yields the same result.
package pricing

import (
	"math"
	"sort"
)

// MaterialRates holds per-area (cm²) and flat material rates for one studio.
type MaterialRates struct {
	NeedlePerCm2   float64 `json:"needle_per_cm2"`
	InkPerCm2      float64 `json:"ink_per_cm2"`
	FilmPerCm2     float64 `json:"film_per_cm2"`
	OintmentPerCm2 float64 `json:"ointment_per_cm2"`
	GlovePerPair   float64 `json:"glove_per_pair"`
	OtherFlat      float64 `json:"other_flat"`
}

// Config is everything Calculate needs besides the quote itself.
// Complexities and BodyParts map a stable option key to its multiplier.
type Config struct {
	Materials           MaterialRates      `json:"materials"`
	Complexities        map[string]float64 `json:"complexities"`
	BodyParts           map[string]float64 `json:"body_parts"`
	HourlyRate          float64            `json:"hourly_rate"`
	ProfitMarginPercent float64            `json:"profit_margin_percent"`
}

// maxConfigValue bounds every rate and multiplier so that their products with
// any sane input stay within float64 range.
const (
	maxConfigValue  = 1e9
	tooLargeMessage = "must not exceed 1000000000"
)

// Validate reports every field of the config that cannot be priced with.
func (c Config) Validate() error {
	verr := &ValidationError{}

	rates := []struct {
		field string
		value float64
	}{
		{"materials.needle_per_cm2", c.Materials.NeedlePerCm2},
		{"materials.ink_per_cm2", c.Materials.InkPerCm2},
		{"materials.film_per_cm2", c.Materials.FilmPerCm2},
		{"materials.ointment_per_cm2", c.Materials.OintmentPerCm2},
		{"materials.glove_per_pair", c.Materials.GlovePerPair},
		{"materials.other_flat", c.Materials.OtherFlat},
		{"profit_margin_percent", c.ProfitMarginPercent},
	}
	for _, r := range rates {
		switch {
		case !isFinite(r.value) || r.value < 0:
			verr.add(r.field, "must be zero or greater")
		case r.value > maxConfigValue:
			verr.add(r.field, tooLargeMessage)
		}
	}

	switch {
	case !isFinite(c.HourlyRate) || c.HourlyRate <= 0:
		verr.add("hourly_rate", "must be greater than zero")
	case c.HourlyRate > maxConfigValue:
		verr.add("hourly_rate", tooLargeMessage)
	}

	if len(c.Complexities) == 0 {
		verr.add("complexities", "at least one complexity option is required")
	}
	for _, key := range sortedKeys(c.Complexities) {
		checkMultiplier(verr, "complexities."+key, c.Complexities[key])
	}
	for _, key := range sortedKeys(c.BodyParts) {
		checkMultiplier(verr, "body_parts."+key, c.BodyParts[key])
	}

	return verr.orNil()
}

func checkMultiplier(verr *ValidationError, field string, m float64) {
	switch {
	case !isFinite(m) || m < 0:
		verr.add(field, "multiplier must be zero or greater")
	case m > maxConfigValue:
		verr.add(field, tooLargeMessage)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
