package session

import "time"

// WithClock exposes withClock for testing.
func WithClock(now func() time.Time) Option {
	return withClock(now)
}
