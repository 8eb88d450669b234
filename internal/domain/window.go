package domain

import "time"

// Window is a half-open time range [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the window has positive length
func (w Window) IsValid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether two windows strictly overlap.
// Adjacent windows (one ends exactly when the other starts) do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Duration returns the window length
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
