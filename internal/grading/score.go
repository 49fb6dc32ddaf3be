package grading

import (
	"math"
	"time"
)

// LatePolicy mirrors an assignment's late-penalty configuration.
type LatePolicy struct {
	Enabled    bool
	Percentage float64
	PerDay     bool
}

// Adjustments captures summed penalty and bonus points applied to a raw score.
type Adjustments struct {
	Penalties float64
	Bonuses   float64
}

// Percentage returns round(earned/possible*100). A non-positive possible yields 0.
func Percentage(earned, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return math.Round(earned / possible * 100)
}

// Round rounds to the given number of decimal places.
func Round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// AdjustedScore applies penalties (clamped at zero) and then bonuses to the raw score.
func AdjustedScore(raw float64, adj Adjustments) float64 {
	adjusted := raw - adj.Penalties
	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted + adj.Bonuses
}

// DaysLate returns the number of started days between due and submitted, or 0 when on time.
func DaysLate(due, submitted time.Time) int {
	if !submitted.After(due) {
		return 0
	}
	days := submitted.Sub(due).Hours() / 24
	return int(math.Ceil(days))
}

// LatePenaltyPercent returns the penalty percentage in [0,100] for a submission time.
func LatePenaltyPercent(policy LatePolicy, due, submitted time.Time) float64 {
	if !policy.Enabled || policy.Percentage <= 0 {
		return 0
	}
	days := DaysLate(due, submitted)
	if days == 0 {
		return 0
	}

	penalty := policy.Percentage
	if policy.PerDay {
		penalty = float64(days) * policy.Percentage
	}
	return math.Min(penalty, 100)
}

// PenaltyPoints converts a penalty percentage into points deducted from the raw score.
func PenaltyPoints(raw, percent float64) float64 {
	if raw <= 0 || percent <= 0 {
		return 0
	}
	return Round(raw*percent/100, 2)
}
