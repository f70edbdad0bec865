package utils

import (
	"fmt"
	"strings"
	"time"
)

/*
   CivilClock converts between absolute instants and wall-clock times in the
   facility's fixed timezone (constant UTC offset, no DST). Civil time is a
   presentation and input concept only; everything persisted or compared is
   an absolute instant.
*/

type TimeSelector string

const (
	SelectorNow       TimeSelector = "now"
	SelectorMorning   TimeSelector = "morning"
	SelectorAfternoon TimeSelector = "afternoon"
	SelectorEvening   TimeSelector = "evening"
	SelectorAllDay    TimeSelector = "all_day"
)

// Named civil hours for the fixed selectors.
const (
	morningHour   = 9
	afternoonHour = 14
	eveningHour   = 18
	allDayOpen    = 7
	allDayClose   = 23
)

func ParseTimeSelector(s string) (TimeSelector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "now":
		return SelectorNow, nil
	case "morning":
		return SelectorMorning, nil
	case "afternoon":
		return SelectorAfternoon, nil
	case "evening":
		return SelectorEvening, nil
	case "all day", "all_day", "allday":
		return SelectorAllDay, nil
	default:
		return "", fmt.Errorf("invalid time selector: %q", s)
	}
}

// CivilDate is a calendar date in the facility timezone.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

type CivilClock struct {
	loc *time.Location
}

// NewCivilClock builds a clock for a fixed UTC offset such as "+03:00" or
// "-05:30".
func NewCivilClock(offset string) (*CivilClock, error) {
	t, err := time.Parse("-07:00", offset)
	if err != nil {
		return nil, fmt.Errorf("invalid facility UTC offset %q: %w", offset, err)
	}
	_, secs := t.Zone()
	return &CivilClock{loc: time.FixedZone("UTC"+offset, secs)}, nil
}

// Location exposes the facility zone for formatting call sites.
func (c *CivilClock) Location() *time.Location {
	return c.loc
}

// DateOf returns the civil calendar date on which the instant falls.
func (c *CivilClock) DateOf(t time.Time) CivilDate {
	y, m, d := t.In(c.loc).Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// NextDate returns the civil date after d.
func (c *CivilClock) NextDate(d CivilDate) CivilDate {
	next := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, c.loc).AddDate(0, 0, 1)
	y, m, day := next.Date()
	return CivilDate{Year: y, Month: m, Day: day}
}

// ToAbsolute converts a civil date plus a named selector into an absolute
// instant. SelectorNow ignores the date and rounds the caller's current
// instant up to the next quarter-hour boundary in civil time.
// SelectorAllDay is a span, not a point; use AllDayWindow for it.
func (c *CivilClock) ToAbsolute(date CivilDate, sel TimeSelector, now time.Time) (time.Time, error) {
	switch sel {
	case SelectorNow:
		return c.RoundUpToQuarterHour(now), nil
	case SelectorMorning:
		return c.at(date, morningHour), nil
	case SelectorAfternoon:
		return c.at(date, afternoonHour), nil
	case SelectorEvening:
		return c.at(date, eveningHour), nil
	default:
		return time.Time{}, fmt.Errorf("selector %q does not name a single instant", sel)
	}
}

// AllDayWindow returns the civil 07:00-23:00 span on the given date.
func (c *CivilClock) AllDayWindow(date CivilDate) (time.Time, time.Time) {
	return c.at(date, allDayOpen), c.at(date, allDayClose)
}

// RoundUpToQuarterHour rounds an instant up to the next :00/:15/:30/:45
// boundary in civil time. An instant already on a boundary is unchanged.
func (c *CivilClock) RoundUpToQuarterHour(t time.Time) time.Time {
	civil := t.In(c.loc).Truncate(time.Minute)
	rem := civil.Minute() % 15
	if rem == 0 && t.In(c.loc).Equal(civil) {
		return civil
	}
	return civil.Add(time.Duration(15-rem) * time.Minute)
}

// ToCivilDisplay renders an instant for user-facing messages. Never use the
// output for comparisons.
func (c *CivilClock) ToCivilDisplay(t time.Time) string {
	return t.In(c.loc).Format("Mon 02 Jan 15:04")
}

func (c *CivilClock) at(date CivilDate, hour int) time.Time {
	return time.Date(date.Year, date.Month, date.Day, hour, 0, 0, 0, c.loc)
}
