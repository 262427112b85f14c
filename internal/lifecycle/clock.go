package lifecycle

import "time"

// Clock stamps created_at and published_at.
// Implemented by SystemClock (production) and testutil.StepClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
