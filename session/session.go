// Package session maps UTC clock time onto the major FX trading
// sessions and their risk multipliers.
package session

import (
	"fmt"
	"time"
)

type Name int

const (
	OffHours Name = iota
	Asia
	London
	NewYork
	LondonNYOverlap
)

func (n Name) String() string {
	switch n {
	case Asia:
		return "ASIA"
	case London:
		return "LONDON"
	case NewYork:
		return "NY"
	case LondonNYOverlap:
		return "LONDON_NY_OVERLAP"
	case OffHours:
		return "OFF_HOURS"
	}
	return fmt.Sprintf("Name(%d)", int(n))
}

// Window is a UTC time-of-day range in minutes since midnight.
// If End < Start the window wraps past midnight.
type Window struct {
	Start int // minutes since 00:00 UTC
	End   int
}

// Contains reports whether the minute-of-day m falls inside the window.
func (w Window) Contains(m int) bool {
	if w.Start == w.End {
		return false
	}
	if w.End < w.Start {
		return m >= w.Start || m < w.End
	}
	return m >= w.Start && m < w.End
}

// Session is one row of the immutable session table.
type Session struct {
	Name            Name
	Window          Window
	RiskMultiplier  float64
	MaxTradesInSess int
}

// Clock resolves timestamps against a session table. Overlap windows are
// their own named sessions and win over the plain sessions they cover.
type Clock struct {
	overlaps []Session
	sessions []Session
	offHours Session
}

// NewClock builds a Clock from explicit session rows. Rows named
// LondonNYOverlap are checked first; OffHours supplies the fallback.
func NewClock(rows []Session) *Clock {
	c := &Clock{
		offHours: Session{Name: OffHours, RiskMultiplier: 0.6},
	}
	for _, s := range rows {
		switch s.Name {
		case LondonNYOverlap:
			c.overlaps = append(c.overlaps, s)
		case OffHours:
			c.offHours = s
		default:
			c.sessions = append(c.sessions, s)
		}
	}
	return c
}

// DefaultClock returns the standard FX session table:
// Asia 23:00-08:00, London 08:00-16:30, NY 13:00-22:00, with the
// London/NY overlap 13:00-16:30 carrying the highest multiplier.
func DefaultClock() *Clock {
	return NewClock([]Session{
		{Name: Asia, Window: Window{Start: 23 * 60, End: 8 * 60}, RiskMultiplier: 0.9, MaxTradesInSess: 2},
		{Name: London, Window: Window{Start: 8 * 60, End: 16*60 + 30}, RiskMultiplier: 1.3, MaxTradesInSess: 3},
		{Name: NewYork, Window: Window{Start: 13 * 60, End: 22 * 60}, RiskMultiplier: 1.2, MaxTradesInSess: 3},
		{Name: LondonNYOverlap, Window: Window{Start: 13 * 60, End: 16*60 + 30}, RiskMultiplier: 1.4, MaxTradesInSess: 3},
		{Name: OffHours, RiskMultiplier: 0.6, MaxTradesInSess: 1},
	})
}

// Resolve returns the session active at t (interpreted in UTC).
// Weekends resolve to OffHours regardless of the clock time.
func (c *Clock) Resolve(t time.Time) Session {
	utc := t.UTC()
	if wd := utc.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return c.offHours
	}

	m := utc.Hour()*60 + utc.Minute()

	for _, s := range c.overlaps {
		if s.Window.Contains(m) {
			return s
		}
	}
	for _, s := range c.sessions {
		if s.Window.Contains(m) {
			return s
		}
	}
	return c.offHours
}
