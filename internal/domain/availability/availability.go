// Package availability parses doctor-declared weekly availability and
// answers which dates and times a booking picker may offer.
//
// Tokens look like "Monday 08:00-12:00". A token that does not parse becomes
// a window that matches nothing; no error is reported for it.
package availability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var tokenPattern = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})$`)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Window is one weekday time range, inclusive on both ends.
type Window struct {
	Weekday     time.Weekday
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
	Raw         string
	valid       bool
}

// ParseWindow parses a single token.
func ParseWindow(token string) Window {
	raw := strings.TrimSpace(token)
	w := Window{Raw: raw}

	m := tokenPattern.FindStringSubmatch(raw)
	if m == nil {
		return w
	}
	day, ok := weekdays[strings.ToLower(m[1])]
	if !ok {
		return w
	}
	nums := make([]int, 4)
	for i := range nums {
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return w
		}
		nums[i] = n
	}
	if !validClock(nums[0], nums[1]) || !validClock(nums[2], nums[3]) {
		return w
	}

	w.Weekday = day
	w.StartHour, w.StartMinute = nums[0], nums[1]
	w.EndHour, w.EndMinute = nums[2], nums[3]
	w.valid = true
	return w
}

func validClock(h, m int) bool {
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}

// Valid reports whether the token parsed.
func (w Window) Valid() bool { return w.valid }

func (w Window) start() int { return w.StartHour*60 + w.StartMinute }
func (w Window) end() int   { return w.EndHour*60 + w.EndMinute }

// ContainsClock reports whether t's time of day (minute precision) lies in
// the window, ignoring the weekday.
func (w Window) ContainsClock(t time.Time) bool {
	if !w.valid {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= w.start() && m <= w.end()
}

// String renders the window in token form.
func (w Window) String() string {
	if !w.valid {
		return w.Raw
	}
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d", w.Weekday, w.StartHour, w.StartMinute, w.EndHour, w.EndMinute)
}

// Filter answers selection questions over a set of windows. Windows are
// independent; overlapping ones simply union.
type Filter struct {
	windows []Window
}

// Parse builds a Filter from individual tokens.
func Parse(tokens []string) Filter {
	ws := make([]Window, 0, len(tokens))
	for _, tok := range tokens {
		ws = append(ws, ParseWindow(tok))
	}
	return Filter{windows: ws}
}

// ParseList builds a Filter from the comma-joined availableTimes string.
func ParseList(availableTimes string) Filter {
	if strings.TrimSpace(availableTimes) == "" {
		return Filter{}
	}
	return Parse(strings.Split(availableTimes, ","))
}

// Windows returns every parsed window, malformed ones included.
func (f Filter) Windows() []Window {
	out := make([]Window, len(f.windows))
	copy(out, f.windows)
	return out
}

// Malformed returns the raw text of tokens that did not parse.
func (f Filter) Malformed() []string {
	var bad []string
	for _, w := range f.windows {
		if !w.valid {
			bad = append(bad, w.Raw)
		}
	}
	return bad
}

// IsDateSelectable is true iff date's weekday matches any window.
func (f Filter) IsDateSelectable(date time.Time) bool {
	for _, w := range f.windows {
		if w.valid && w.Weekday == date.Weekday() {
			return true
		}
	}
	return false
}

// IsTimeSelectable is true iff date's time of day falls inside a window for
// reference's weekday.
func (f Filter) IsTimeSelectable(date, reference time.Time) bool {
	day := reference.Weekday()
	for _, w := range f.windows {
		if w.valid && w.Weekday == day && w.ContainsClock(date) {
			return true
		}
	}
	return false
}

// Allows combines both predicates for a concrete appointment time.
func (f Filter) Allows(t time.Time) bool {
	return f.IsDateSelectable(t) && f.IsTimeSelectable(t, t)
}

// SelectableTimes lists the times on day, stepping from midnight by step,
// that IsTimeSelectable accepts.
func (f Filter) SelectableTimes(day time.Time, step time.Duration) []time.Time {
	if step <= 0 {
		step = 30 * time.Minute
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var out []time.Time
	for t := midnight; t.Day() == midnight.Day(); t = t.Add(step) {
		if f.IsTimeSelectable(t, day) {
			out = append(out, t)
		}
	}
	return out
}

// Format joins windows back into the availableTimes form.
func Format(ws []Window) string {
	parts := make([]string, 0, len(ws))
	for _, w := range ws {
		if s := w.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
