package ratelimit

import "time"

// Clock abstracts time for the gate so tests can run without real delays.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that fires after d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the Clock used outside of tests.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// After returns time.After(d).
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
