package domain

import (
	"fmt"
	"time"
)

// Interval is a closed time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates that start does not follow end.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("interval bounds are required: %w", ErrInvalidInput)
	}
	if start.After(end) {
		return Interval{}, fmt.Errorf("interval start %s after end %s: %w",
			start.Format(time.RFC3339), end.Format(time.RFC3339), ErrInvalidInput)
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}
