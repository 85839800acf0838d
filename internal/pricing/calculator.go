package pricing

import "github.com/shopspring/decimal"

// Advisory warnings attached to a Result. They never block a calculation.
const (
	WarnAreaTooSmall          = "area too small"
	WarnMultipleSessions      = "consider multiple sessions"
	WarnMinimumTime           = "minimum recommended time"
	WarnMultipleConsultations = "may require multiple consultations"
	WarnNeedleCostHigh        = "needle cost high relative to labor"
	WarnUnusuallyLowPrice     = "check configuration, value unusually low"
)

const (
	minRecommendedAreaCm2      = 1.0
	maxSingleSessionAreaCm2    = 2000.0
	minRecommendedHours        = 0.5
	maxSingleConsultationHours = 8.0
	minPlausibleFinalPrice     = 50.0
	presentationDecimalPlaces  = 2
)

const msgValueTooLarge = "value too large"

// MaterialCosts breaks totalMaterials down by category.
type MaterialCosts struct {
	Needles  float64 `json:"needles"`
	Ink      float64 `json:"ink"`
	Gloves   float64 `json:"gloves"`
	Film     float64 `json:"film"`
	Ointment float64 `json:"ointment"`
	Other    float64 `json:"other"`
	Custom   float64 `json:"custom"`
}

// Total sums every category.
func (m MaterialCosts) Total() float64 {
	return m.Needles + m.Ink + m.Gloves + m.Film + m.Ointment + m.Other + m.Custom
}

// Result is the outcome of one calculation.
type Result struct {
	Area           float64       `json:"area"`
	Materials      MaterialCosts `json:"materials"`
	TotalMaterials float64       `json:"total_materials"`
	BaseLaborCost  float64       `json:"base_labor_cost"`
	LaborCost      float64       `json:"labor_cost"`
	FinalPrice     float64       `json:"final_price"`
	Warnings       []string      `json:"warnings"`
}

// Calculate prices in under cfg. It returns a *ValidationError (possibly
// wrapped) when a required field is missing, an option key is unknown, or the
// inputs are too large for any figure to be represented.
func Calculate(in Input, cfg Config) (*Result, error) {
	r, err := Resolve(in, cfg)
	if err != nil {
		return nil, err
	}
	res := calculateResolved(r, cfg)
	if err := checkRepresentable(r, res); err != nil {
		return nil, err
	}
	return res, nil
}

func calculateResolved(r Resolved, cfg Config) *Result {
	rates := cfg.Materials
	area := r.Width * r.Height

	var m MaterialCosts
	if len(r.Needles) > 0 {
		for _, n := range r.Needles {
			m.Needles += float64(n.Quantity) * n.UnitPrice
		}
	} else {
		m.Needles = area * rates.NeedlePerCm2
	}
	m.Ink = area * r.ComplexityMultiplier * rates.InkPerCm2 * float64(r.ColorCount)
	m.Gloves = float64(r.GlovesQuantity) * rates.GlovePerPair
	m.Film = area * rates.FilmPerCm2
	if r.UseOintment {
		m.Ointment = area * rates.OintmentPerCm2
	}
	m.Other = rates.OtherFlat
	for _, c := range r.CustomMaterials {
		m.Custom += c.Cost
	}

	totalMaterials := m.Total()
	baseLabor := r.TimeHours * cfg.HourlyRate * r.ComplexityMultiplier * r.BodyPartMultiplier
	// Margin applies to labor only; materials are billed at cost.
	labor := baseLabor * (1 + cfg.ProfitMarginPercent/100)

	res := &Result{
		Area:           area,
		Materials:      m,
		TotalMaterials: totalMaterials,
		BaseLaborCost:  baseLabor,
		LaborCost:      labor,
		FinalPrice:     totalMaterials + labor,
	}
	res.Warnings = warningsFor(r, res)
	return res
}

// checkRepresentable names the inputs that pushed a figure out of float64 range.
func checkRepresentable(r Resolved, res *Result) error {
	verr := &ValidationError{}
	m := res.Materials
	areaFinite := isFinite(res.Area) && isFinite(m.Film) && isFinite(m.Ointment) &&
		(len(r.Needles) > 0 || isFinite(m.Needles))
	if !areaFinite {
		verr.add("width", msgValueTooLarge)
		verr.add("height", msgValueTooLarge)
	}
	if len(r.Needles) > 0 && !isFinite(m.Needles) {
		verr.add("needles", msgValueTooLarge)
	}
	if areaFinite && !isFinite(m.Ink) {
		verr.add("color_count", msgValueTooLarge)
	}
	if !isFinite(m.Gloves) {
		verr.add("gloves_quantity", msgValueTooLarge)
	}
	if !isFinite(m.Custom) {
		verr.add("custom_materials", msgValueTooLarge)
	}
	if !isFinite(res.BaseLaborCost) || !isFinite(res.LaborCost) {
		verr.add("time_hours", msgValueTooLarge)
	}
	if len(verr.Fields) == 0 && (!isFinite(res.TotalMaterials) || !isFinite(res.FinalPrice)) {
		verr.add("final_price", msgValueTooLarge)
	}
	return verr.orNil()
}

func warningsFor(r Resolved, res *Result) []string {
	warnings := []string{}
	if res.Area < minRecommendedAreaCm2 {
		warnings = append(warnings, WarnAreaTooSmall)
	}
	if res.Area > maxSingleSessionAreaCm2 {
		warnings = append(warnings, WarnMultipleSessions)
	}
	if r.TimeHours < minRecommendedHours {
		warnings = append(warnings, WarnMinimumTime)
	}
	if r.TimeHours > maxSingleConsultationHours {
		warnings = append(warnings, WarnMultipleConsultations)
	}
	if res.Materials.Needles > res.LaborCost {
		warnings = append(warnings, WarnNeedleCostHigh)
	}
	if res.FinalPrice < minPlausibleFinalPrice {
		warnings = append(warnings, WarnUnusuallyLowPrice)
	}
	return warnings
}

// Round rounds a currency or area value for display.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(presentationDecimalPlaces).InexactFloat64()
}

// Rounded returns a copy of r with every amount rounded for display. The
// receiver is left untouched so callers can keep computing on full precision.
func (r Result) Rounded() Result {
	out := r
	out.Area = Round(r.Area)
	out.Materials = MaterialCosts{
		Needles:  Round(r.Materials.Needles),
		Ink:      Round(r.Materials.Ink),
		Gloves:   Round(r.Materials.Gloves),
		Film:     Round(r.Materials.Film),
		Ointment: Round(r.Materials.Ointment),
		Other:    Round(r.Materials.Other),
		Custom:   Round(r.Materials.Custom),
	}
	out.TotalMaterials = Round(r.TotalMaterials)
	out.BaseLaborCost = Round(r.BaseLaborCost)
	out.LaborCost = Round(r.LaborCost)
	out.FinalPrice = Round(r.FinalPrice)
	out.Warnings = append([]string{}, r.Warnings...)
	return out
}
