package datemath

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// Every component that reasons about "today" takes one of these.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
