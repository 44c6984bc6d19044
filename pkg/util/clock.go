package util

import "time"

type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }

// FixedClock always reports the same instant. Used by tests that need stable
// order timestamps.
type FixedClock struct{ T time.Time }

func (c FixedClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.T.Add(d)
	return ch
}
func (c FixedClock) Now() time.Time { return c.T }
