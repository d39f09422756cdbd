// utils/window.go
package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day (no date, no zone).
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h) into a Clock.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid clock time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid minute in clock time %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Window is a same-day delivery window. It never wraps past midnight;
// both edges are inside the window (19:00-19:09 covers ten minutes).
type Window struct {
	Start Clock
	End   Clock
}

// Contains reports whether the given local hour/minute falls inside the window.
func (w Window) Contains(hour, minute int) bool {
	cur := hour*60 + minute
	return cur >= w.Start.Minutes() && cur <= w.End.Minutes()
}

func (w Window) String() string { return w.Start.String() + "-" + w.End.String() }

// WindowCheck is the result of evaluating a subscriber's local time against
// the delivery window.
type WindowCheck struct {
	InWindow    bool
	LocalHour   int
	LocalMinute int
	// LocalDate is the subscriber's local calendar date (YYYY-MM-DD). It is
	// the idempotency key component, so it must be computed per subscriber:
	// "today" differs across timezones at the same instant.
	LocalDate string
}

// EvaluateWindow resolves now into the subscriber's timezone and checks the
// delivery window. An unknown timezone identifier returns an error; it never
// panics, since a bad timezone on one row must not take down the whole run.
func EvaluateWindow(timezone string, now time.Time, w Window) (WindowCheck, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return WindowCheck{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	local := now.In(loc)
	check := WindowCheck{
		LocalHour:   local.Hour(),
		LocalMinute: local.Minute(),
		LocalDate:   local.Format("2006-01-02"),
	}
	check.InWindow = w.Contains(check.LocalHour, check.LocalMinute)
	return check, nil
}
