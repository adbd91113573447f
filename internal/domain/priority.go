package domain

import "math"

// Priority weights how fast a snippet or article's review interval grows.
// It is stored as an integer in [10, 50] and displayed as 1.0-5.0; a lower
// number means a higher weight, so the item resurfaces sooner.
type Priority int

const (
	PriorityMin Priority = 10
	PriorityMax Priority = 50

	// PriorityDefault is the middle of the scale (display 3.0).
	PriorityDefault Priority = 30
)

// NewPriority validates a stored-scale priority value.
func NewPriority(n int) (Priority, error) {
	p := Priority(n)
	if p < PriorityMin || p > PriorityMax {
		return 0, Validationf("priority %d outside [%d, %d]", n, PriorityMin, PriorityMax)
	}
	return p, nil
}

// ParsePriority converts a display-scale value (1.0-5.0) to the stored
// scale, clamping to the valid range. NaN is rejected.
func ParsePriority(display float64) (Priority, error) {
	if math.IsNaN(display) {
		return 0, Validationf("priority cannot be NaN")
	}
	clamped := math.Min(5, math.Max(1, display))
	return Priority(math.Round(clamped * 10)), nil
}

// Display returns the user-facing 1.0-5.0 value.
func (p Priority) Display() float64 {
	return float64(p) / 10
}
