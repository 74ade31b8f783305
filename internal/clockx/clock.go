// Package clockx provides an injectable clock so that timestamp stamping and
// staleness checks can be driven by a fake in tests.
package clockx

import "time"

// Clock returns the current time. Production code uses Real; tests use Fake.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is a settable clock for tests.
type Fake struct {
	Current time.Time
}

func (f *Fake) Now() time.Time { return f.Current }

// Advance moves the fake clock forward.
func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }

// Millis converts a time to epoch milliseconds, the application-boundary
// representation of every date in the document layer.
func Millis(t time.Time) int64 { return t.UnixMilli() }
