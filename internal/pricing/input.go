package pricing

import (
	"fmt"
	"strings"
)

// Needle is one line of the needles picked for a session.
type Needle struct {
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// CustomMaterial is a studio-specific extra charged at cost.
type CustomMaterial struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// Input is a quote as captured from the form. Width, Height and TimeHours are
// pointers so that "not filled in" is distinguishable from zero.
type Input struct {
	Width           *float64         `json:"width"`
	Height          *float64         `json:"height"`
	Complexity      string           `json:"complexity"`
	BodyPart        string           `json:"body_part,omitempty"`
	TimeHours       *float64         `json:"time_hours"`
	ColorCount      int              `json:"color_count,omitempty"`
	Needles         []Needle         `json:"needles,omitempty"`
	GlovesQuantity  int              `json:"gloves_quantity,omitempty"`
	UseOintment     bool             `json:"use_ointment"`
	CustomMaterials []CustomMaterial `json:"custom_materials,omitempty"`
}

// Resolved is an Input with every default applied and every option key
// replaced by its multiplier. The arithmetic only ever sees a Resolved.
type Resolved struct {
	Width                float64
	Height               float64
	TimeHours            float64
	ComplexityMultiplier float64
	BodyPartMultiplier   float64
	ColorCount           int
	GlovesQuantity       int
	UseOintment          bool
	Needles              []Needle
	CustomMaterials      []CustomMaterial
}

// FieldError names one blocking problem with the input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a quote cannot be calculated at all.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid quote input: " + strings.Join(parts, "; ")
}

// FieldNames returns the offending field names in report order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Resolve validates in against cfg and applies defaults. Missing required
// fields are never defaulted: they are reported in a *ValidationError.
func Resolve(in Input, cfg Config) (Resolved, error) {
	if err := cfg.Validate(); err != nil {
		return Resolved{}, fmt.Errorf("pricing config: %w", err)
	}

	verr := &ValidationError{}
	r := Resolved{
		ColorCount:      1,
		GlovesQuantity:  1,
		UseOintment:     in.UseOintment,
		Needles:         in.Needles,
		CustomMaterials: in.CustomMaterials,
	}

	r.Width = requirePositive(verr, "width", in.Width)
	r.Height = requirePositive(verr, "height", in.Height)
	r.TimeHours = requirePositive(verr, "time_hours", in.TimeHours)

	complexity := strings.TrimSpace(in.Complexity)
	if complexity == "" {
		verr.add("complexity", "is required")
	} else if m, ok := cfg.Complexities[complexity]; ok {
		r.ComplexityMultiplier = m
	} else {
		verr.add("complexity", fmt.Sprintf("unknown option %q", complexity))
	}

	r.BodyPartMultiplier = 1.0
	if bodyPart := strings.TrimSpace(in.BodyPart); bodyPart != "" {
		if m, ok := cfg.BodyParts[bodyPart]; ok {
			r.BodyPartMultiplier = m
		} else {
			verr.add("body_part", fmt.Sprintf("unknown option %q", bodyPart))
		}
	}

	switch {
	case in.ColorCount < 0:
		verr.add("color_count", "must not be negative")
	case in.ColorCount > 1:
		r.ColorCount = in.ColorCount
	}

	switch {
	case in.GlovesQuantity < 0:
		verr.add("gloves_quantity", "must not be negative")
	case in.GlovesQuantity > 1:
		r.GlovesQuantity = in.GlovesQuantity
	}

	for i, n := range in.Needles {
		if n.Quantity < 0 {
			verr.add(fmt.Sprintf("needles[%d].quantity", i), "must not be negative")
		}
		if !isFinite(n.UnitPrice) || n.UnitPrice < 0 {
			verr.add(fmt.Sprintf("needles[%d].unit_price", i), "must not be negative")
		}
	}
	for i, m := range in.CustomMaterials {
		if !isFinite(m.Cost) || m.Cost < 0 {
			verr.add(fmt.Sprintf("custom_materials[%d].cost", i), "must not be negative")
		}
	}

	if err := verr.orNil(); err != nil {
		return Resolved{}, err
	}
	return r, nil
}

func requirePositive(verr *ValidationError, field string, v *float64) float64 {
	if v == nil {
		verr.add(field, "is required")
		return 0
	}
	if !isFinite(*v) || *v <= 0 {
		verr.add(field, "must be greater than zero")
		return 0
	}
	return *v
}
