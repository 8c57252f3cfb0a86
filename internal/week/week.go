// Package week resolves the reportable week for a local date and decides
// whether its report may be generated yet.
package week

import (
	"fmt"
	"strings"
	"time"

	"moodlog/internal/calendar"
)

// DefaultReadyDay is the weekday on which the week that ends on it becomes reportable.
const DefaultReadyDay = time.Sunday

// Window is a seven-day local week ending on the ready day.
type Window struct {
	Start         calendar.Date `json:"week_start"`
	End           calendar.Date `json:"week_end"`
	IsCurrentWeek bool          `json:"is_current_week"`
}

// Range is a half-open UTC interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Resolve returns the week ending on reference when reference falls on
// readyDay, otherwise the week ending on the most recent readyDay strictly
// before reference.
func Resolve(reference calendar.Date, readyDay time.Weekday) Window {
	back := (int(reference.Weekday()) - int(readyDay) + 7) % 7
	end := reference.AddDays(-back)
	return Window{
		Start:         end.AddDays(-6),
		End:           end,
		IsCurrentWeek: back == 0,
	}
}

// UTC converts the window to the UTC instants bounding it in loc. The end is
// local midnight after the last day, so the whole of that day is included.
func (w Window) UTC(loc *time.Location) Range {
	return Range{
		Start: w.Start.In(loc).UTC(),
		End:   w.End.AddDays(1).In(loc).UTC(),
	}
}

func (w Window) Key() string {
	return w.Start.String() + "/" + w.End.String()
}

// Readiness is the gate decision for today.
type Readiness struct {
	Ready          bool
	DaysUntilReady int
	Window         Window
}

// CheckReady allows generation only when today's resolved window is the
// current one. DaysUntilReady is 0 exactly when Ready, otherwise 1..7.
func CheckReady(today calendar.Date, readyDay time.Weekday) Readiness {
	w := Resolve(today, readyDay)
	if w.IsCurrentWeek {
		return Readiness{Ready: true, Window: w}
	}
	days := (int(readyDay) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return Readiness{DaysUntilReady: days, Window: w}
}

// ParseWeekday accepts a weekday name ("sunday", "Sun") or number (0 = Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return time.Weekday(s[0] - '0'), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
