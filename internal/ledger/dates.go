package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/tinoosan/bukubesar/internal/errs"
)

// Accepted business date layouts.
const (
	LayoutISO = "2006-01-02"
	LayoutDMY = "02-01-2006"
)

// Day is a half-open calendar day [Start, End) in a fixed location.
type Day struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return Day{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls within the day.
func (d Day) Contains(t time.Time) bool { return !t.Before(d.Start) && t.Before(d.End) }

// String renders the day as YYYY-MM-DD.
func (d Day) String() string { return d.Start.Format(LayoutISO) }

// ParseDate parses s using layout in loc, failing with errs.ErrInvalidDate.
func ParseDate(s, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match %s", errs.ErrInvalidDate, s, layout)
	}
	return t, nil
}
