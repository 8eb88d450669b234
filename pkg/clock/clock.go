// Package clock supplies the current instant in the service's canonical time zone.
package clock

import (
	"sync"
	"time"
)

// Real returns wall-clock time converted to a fixed location.
type Real struct {
	loc *time.Location
}

// NewReal creates a clock for the given IANA time zone name.
// An empty name means UTC.
func NewReal(zone string) (*Real, error) {
	if zone == "" {
		return &Real{loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &Real{loc: loc}, nil
}

// Now returns the current time in the configured location.
func (c *Real) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the canonical time zone.
func (c *Real) Location() *time.Location {
	return c.loc
}

// Mock is a manually driven clock for tests and replays.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock creates a clock frozen at t.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now returns the frozen time.
func (c *Mock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Mock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Mock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
