// Package threshold classifies observed clinical values against a rule's
// severity bands.
package threshold

import (
	"errors"
	"fmt"
	"math"

	"trialwatch.app/engine/internal/model"
)

var (
	ErrBandsNotAscending = errors.New("threshold bands must satisfy low < medium < high < critical")
	ErrMissingReference  = errors.New("reference value is required for lower and two_sided rules")
	ErrUnknownDirection  = errors.New("unknown rule direction")
)

// Validate checks the invariants an enabled rule must hold. Disabled rules
// are stored as-is.
func Validate(r model.ThresholdRule) error {
	if !r.Enabled {
		return nil
	}
	dir := r.Direction
	if dir == "" {
		dir = model.RuleDirectionUpper
	}
	if !dir.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDirection, r.Direction)
	}
	for _, v := range []float64{r.Low, r.Medium, r.High, r.Critical} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrBandsNotAscending
		}
	}
	if !(r.Low < r.Medium && r.Medium < r.High && r.High < r.Critical) {
		return ErrBandsNotAscending
	}
	if dir != model.RuleDirectionUpper && r.Reference == nil {
		return ErrMissingReference
	}
	return nil
}

// BandInput maps an observed value onto the axis the bands are expressed in.
// Upper rules band the raw value, lower rules band the shortfall below the
// reference and two-sided rules band the absolute deviation from it.
func BandInput(r model.ThresholdRule, value float64) float64 {
	switch r.Direction {
	case model.RuleDirectionLower:
		if r.Reference == nil {
			return value
		}
		return *r.Reference - value
	case model.RuleDirectionTwoSided:
		if r.Reference == nil {
			return value
		}
		return math.Abs(value - *r.Reference)
	default:
		return value
	}
}

// Band classifies x with inclusive-low, exclusive-high bands. ok is false
// when x falls below the low band.
func Band(r model.ThresholdRule, x float64) (model.Severity, bool) {
	switch {
	case x >= r.Critical:
		return model.SeverityCritical, true
	case x >= r.High:
		return model.SeverityHigh, true
	case x >= r.Medium:
		return model.SeverityMedium, true
	case x >= r.Low:
		return model.SeverityLow, true
	default:
		return "", false
	}
}

// Classify returns the band input and severity for an observed value.
func Classify(r model.ThresholdRule, value float64) (float64, model.Severity, bool) {
	x := BandInput(r, value)
	sev, ok := Band(r, x)
	return x, sev, ok
}
