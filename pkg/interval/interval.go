// Package interval provides overlap checks for same-day work windows expressed as
// (date, start time, end time) triples with times formatted as HH:MM or HH:MM:SS.
package interval

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used for all calendar dates.
const DateLayout = "2006-01-02"

// Clock is a time of day in seconds since midnight.
type Clock int

// ParseClock parses HH:MM or HH:MM:SS.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		if len(p) != 2 || !isDigit(p[0]) || !isDigit(p[1]) {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		vals[i] = v
	}

	return Clock(vals[0]*3600 + vals[1]*60 + vals[2]), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// MustClock is ParseClock for constants and tests.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Duration returns the clock as an offset from midnight.
func (c Clock) Duration() time.Duration {
	return time.Duration(c) * time.Second
}

// String formats the clock as HH:MM, or HH:MM:SS when seconds are set.
func (c Clock) String() string {
	h, m, s := int(c)/3600, int(c)%3600/60, int(c)%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// IsValidRange reports whether end is strictly after start.
// Unparseable input is never a valid range.
func IsValidRange(start, end string) bool {
	s, err := ParseClock(start)
	if err != nil {
		return false
	}
	e, err := ParseClock(end)
	if err != nil {
		return false
	}
	return e > s
}

// Overlaps reports whether two windows on the same date share any instant.
// Windows are half-open, so touching endpoints do not overlap.
func Overlaps(aDate, aStart, aEnd, bDate, bStart, bEnd string) bool {
	return OverlapsWithGap(aDate, aStart, aEnd, bDate, bStart, bEnd, 0)
}

// OverlapsWithGap is Overlaps with gap added to the effective end of the first window.
func OverlapsWithGap(aDate, aStart, aEnd, bDate, bStart, bEnd string, gap time.Duration) bool {
	if aDate != bDate {
		return false
	}
	a, err := NewWindow(aDate, aStart, aEnd)
	if err != nil {
		return false
	}
	b, err := NewWindow(bDate, bStart, bEnd)
	if err != nil {
		return false
	}
	return a.OverlapsWithGap(b, gap)
}

// Window is a parsed same-day interval.
type Window struct {
	Date  string
	Start Clock
	End   Clock
}

// NewWindow parses a (date, start, end) triple. It does not require end > start.
func NewWindow(date, start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Date: date, Start: s, End: e}, nil
}

// Overlaps reports whether w and o share any instant (half-open).
func (w Window) Overlaps(o Window) bool {
	return w.Date == o.Date && w.Start < o.End && o.Start < w.End
}

// OverlapsWithGap reports whether o starts before w's end extended by gap.
func (w Window) OverlapsWithGap(o Window, gap time.Duration) bool {
	w.End += Clock(gap / time.Second)
	return w.Overlaps(o)
}

// StartAt resolves the window start to an instant in loc.
func (w Window) StartAt(loc *time.Location) (time.Time, error) {
	return at(w.Date, w.Start, loc)
}

// EndAt resolves the window end to an instant in loc.
func (w Window) EndAt(loc *time.Location) (time.Time, error) {
	return at(w.Date, w.End, loc)
}

func at(date string, c Clock, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	// wall clock, not elapsed time: midnight plus an offset drifts on DST days
	h, m, sec := int(c)/3600, int(c)%3600/60, int(c)%60
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, sec, 0, loc), nil
}

// ParseDate validates a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Today formats now as a date in its own location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
