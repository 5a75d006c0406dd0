package incentive

import "time"

// =============================================================================
// CLOCK - Substitutable time source
// =============================================================================

// Clock supplies the current instant and, derived from it, the current
// calendar month. Lifecycle rules (bootstrap window, submission window) go
// through this interface so they are testable independent of wall-clock time.
type Clock interface {
	Now() time.Time
	CurrentMonth() Month
}

// SystemClock uses the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time      { return time.Now().UTC() }
func (SystemClock) CurrentMonth() Month { return MonthOf(time.Now().UTC()) }

// FixedClock is pinned to a single instant. Tests advance it explicitly.
type FixedClock struct {
	Instant time.Time
}

func NewFixedClock(instant time.Time) *FixedClock { return &FixedClock{Instant: instant} }

func (c *FixedClock) Now() time.Time      { return c.Instant }
func (c *FixedClock) CurrentMonth() Month { return MonthOf(c.Instant) }

// Advance moves the clock forward (or backward) by d.
func (c *FixedClock) Advance(d time.Duration) { c.Instant = c.Instant.Add(d) }

// Set pins the clock to a new instant.
func (c *FixedClock) Set(instant time.Time) { c.Instant = instant }
