package models

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date without a time component
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t in t's location
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a YYYY-MM-DD date
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DayOf(t), nil
}

// NewDay validates a year/month/day triple
func NewDay(year, month, day int) (Day, error) {
	if month < 1 || month > 12 {
		return Day{}, fmt.Errorf("invalid month %d", month)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return Day{}, fmt.Errorf("invalid day %d for %04d-%02d", day, year, month)
	}
	return DayOf(t), nil
}

// AddDays returns the date n days after d (n may be negative)
func (d Day) AddDays(n int) Day {
	return DayOf(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is earlier than other
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Path formats the day as the backend's YYYY/MM/DD path segment
func (d Day) Path() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, int(d.Month), d.Day)
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the day as "YYYY-MM-DD"
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// QuickRange is a named date window offered by the console
type QuickRange string

const (
	RangeToday     QuickRange = "today"
	RangeYesterday QuickRange = "yesterday"
	RangeLast7     QuickRange = "last7"
	RangeLast30    QuickRange = "last30"
)

// DateScope is the window of days a supplier-request list covers, From..To inclusive
type DateScope struct {
	Range QuickRange `json:"range,omitempty"`
	From  Day        `json:"from"`
	To    Day        `json:"to"`
}

// SingleDay scopes a list to one date
func SingleDay(d Day) DateScope {
	return DateScope{From: d, To: d}
}

// ResolveQuickRange turns a named range into concrete days ending at now's date
func ResolveQuickRange(r QuickRange, now time.Time) (DateScope, error) {
	today := DayOf(now)
	switch r {
	case RangeToday:
		return DateScope{Range: r, From: today, To: today}, nil
	case RangeYesterday:
		y := today.AddDays(-1)
		return DateScope{Range: r, From: y, To: y}, nil
	case RangeLast7:
		return DateScope{Range: r, From: today.AddDays(-6), To: today}, nil
	case RangeLast30:
		return DateScope{Range: r, From: today.AddDays(-29), To: today}, nil
	}
	return DateScope{}, fmt.Errorf("unknown range %q", r)
}

// Days lists every date in the scope in chronological order
func (s DateScope) Days() []Day {
	var days []Day
	for d := s.From; !s.To.Before(d); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Key identifies the scope for comparisons and report names
func (s DateScope) Key() string {
	if s.From == s.To {
		return s.From.String()
	}
	return s.From.String() + "_" + s.To.String()
}
