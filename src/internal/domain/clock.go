package domain

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock truncates to microseconds, the resolution PostgreSQL stores.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}
