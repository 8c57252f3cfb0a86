// Package calendar converts instants to user-local calendar dates and back.
//
// Timezones are IANA identifiers resolved through the runtime tz database.
// An empty identifier means UTC; an unknown one is logged and treated as UTC.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"moodlog/internal/logger"
)

const layout = "2006-01-02"

// Date is a calendar day with no time-of-day and no location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// In returns local midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// AddDays returns d shifted by n days, normalising across month and year ends.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// DaysUntil returns the number of days from d to other (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.In(time.UTC).Sub(d.In(time.UTC)).Hours() / 24)
}

func (d Date) Before(other Date) bool { return d.In(time.UTC).Before(other.In(time.UTC)) }
func (d Date) After(other Date) bool  { return d.In(time.UTC).After(other.In(time.UTC)) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Location resolves an IANA timezone. Empty → UTC; unknown → warning and UTC.
func Location(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("calendar.invalid_timezone", "timezone", tz, "err", err)
		return time.UTC
	}
	return loc
}

// LocalNow returns the calendar date of now as observed in tz.
func LocalNow(now time.Time, tz string) Date {
	return DateOf(now.In(Location(tz)))
}

// ToUTC returns the UTC instant of local midnight on d in tz. The offset is
// the one in force on that date, so DST transitions are honoured.
func ToUTC(d Date, tz string) time.Time {
	return d.In(Location(tz)).UTC()
}

// AtClock returns the UTC instant of the given wall-clock time on d in loc.
// Wall-clock times skipped by a DST gap normalise forward.
func AtClock(d Date, hour, min int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, hour, min, 0, 0, loc).UTC()
}
