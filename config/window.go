package config

import (
	"fmt"
	"time"
)

// Window is a daily time-of-day interval in an exchange-local timezone.
// New buys are suppressed inside it; approaching it triggers a forced exit
// evaluation. A window may span midnight (start > end).
type Window struct {
	startMin int // minutes since midnight, inclusive
	endMin   int // minutes since midnight, exclusive
	loc      *time.Location
}

// ParseWindow builds a Window from "HH:MM" bounds and an IANA timezone name.
func ParseWindow(start, end, tz string) (Window, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Window{}, fmt.Errorf("loading timezone %q: %w", tz, err)
	}
	startMin, err := parseClock(start)
	if err != nil {
		return Window{}, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return Window{}, err
	}
	if startMin == endMin {
		return Window{}, fmt.Errorf("window start and end are equal (%s)", start)
	}
	return Window{startMin: startMin, endMin: endMin, loc: loc}, nil
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q (want HH:MM): %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.loc == nil {
		return false
	}
	local := t.In(w.loc)
	min := local.Hour()*60 + local.Minute()
	if w.startMin < w.endMin {
		return min >= w.startMin && min < w.endMin
	}
	// Spans midnight.
	return min >= w.startMin || min < w.endMin
}

// Approaching reports whether t is within lead of the window's start but not
// yet inside it. Used to force a pre-window exit evaluation.
func (w Window) Approaching(t time.Time, lead time.Duration) bool {
	if w.loc == nil || w.Contains(t) {
		return false
	}
	leadMin := int(lead.Minutes())
	local := t.In(w.loc)
	min := local.Hour()*60 + local.Minute()
	delta := w.startMin - min
	if delta < 0 {
		delta += 24 * 60
	}
	return delta > 0 && delta <= leadMin
}
