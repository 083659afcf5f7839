package conflict

import (
	"fmt"
	"math"
	"time"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Validate() error {
	if w.End.Before(w.Start) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidWindow, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// BufferPolicy is the minimum gap required between the return of one
// reservation and the pickup of the next on the same resource.
type BufferPolicy struct {
	Hours float64 `json:"buffer_hours"`
}

// Duration treats negative and non-finite hours as no buffer.
func (p BufferPolicy) Duration() time.Duration {
	if p.Hours <= 0 || math.IsNaN(p.Hours) || math.IsInf(p.Hours, 0) {
		return 0
	}
	return time.Duration(math.Round(p.Hours*60)) * time.Minute
}

func (p BufferPolicy) Minutes() int {
	return int(p.Duration() / time.Minute)
}

// Overlaps reports whether a and b intersect, or sit closer to each other than
// buffer in either order. A gap of exactly buffer is compliant.
func Overlaps(a, b Window, buffer time.Duration) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	if err := b.Validate(); err != nil {
		return false, err
	}
	return overlaps(a, b, buffer), nil
}

func overlaps(a, b Window, buffer time.Duration) bool {
	if a.Start.Before(b.End) && a.End.After(b.Start) {
		return true
	}
	if buffer <= 0 {
		return false
	}

	gapAfterA := b.Start.Sub(a.End)
	gapAfterB := a.Start.Sub(b.End)
	return (gapAfterA >= 0 && gapAfterA < buffer) || (gapAfterB >= 0 && gapAfterB < buffer)
}

// SignedGapMinutes returns laterStart - earlierEnd in whole minutes. Negative
// values mean the later interval starts before the earlier one ends.
func SignedGapMinutes(earlierEnd, laterStart time.Time) int {
	return int(laterStart.Sub(earlierEnd) / time.Minute)
}

func overlapMinutes(a, b Window) int {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}
