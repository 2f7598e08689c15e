// Package interval models half-open time ranges used throughout the booking
// core. An Interval covers [Start, End): the start instant is included, the
// end instant is not, so back-to-back bookings sharing a boundary do not
// conflict.
package interval

import (
	"errors"
	"time"
)

// ErrInvalidInterval indicates an interval whose start is not strictly
// before its end.
var ErrInvalidInterval = errors.New("interval: start must be before end")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate reports whether the interval is well formed.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return ErrInvalidInterval
	}
	return nil
}

// Duration returns the length of the interval. Negative for malformed
// intervals; callers are expected to Validate first.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching boundaries (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Shift returns the interval translated so it starts at the given instant,
// preserving duration.
func (iv Interval) Shift(start time.Time) Interval {
	return Interval{Start: start, End: start.Add(iv.Duration())}
}
