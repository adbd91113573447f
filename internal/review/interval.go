package review

import (
	"math"

	"github.com/retainmd/retain/internal/domain"
)

const (
	msPerDay = int64(86_400_000)

	// Interval growth: a priority-10 item grows by baseMultiplier per
	// review; each priority step above that adds multiplierStep. Lower
	// priority numbers grow slower and therefore resurface sooner —
	// priority alone modulates growth, with no per-item difficulty
	// estimate.
	baseMultiplier = 1.01
	multiplierStep = 0.015

	// fallbackIntervalMS seeds the growth for items with no review
	// history.
	fallbackIntervalMS = msPerDay
)

// IntervalMultiplier returns the per-review growth factor for a priority.
func IntervalMultiplier(priority domain.Priority) float64 {
	return baseMultiplier + float64(priority-domain.PriorityMin)*multiplierStep
}

// NextTextReviewInterval computes the next review interval in milliseconds
// from the item's priority and its most recent interval. Pure: the same
// inputs always produce the same output.
func NextTextReviewInterval(priority domain.Priority, lastIntervalMS int64) int64 {
	return int64(math.Round(float64(lastIntervalMS) * IntervalMultiplier(priority)))
}
