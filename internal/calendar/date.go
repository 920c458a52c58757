package calendar

import (
	"errors"
	"fmt"
	"time"

	"daycount/internal/model"
)

// ErrInvalidInput is returned when a render pass has no anchor date.
var ErrInvalidInput = errors.New("calendar: invalid input")

const secondsPerDay = 24 * 60 * 60

// Date is a local calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NormalizedDate builds a Date, folding overflowing months and days into
// the neighbouring months/years: (2024, 13, 1) is 2025-01-01 and
// (2024, 3, 0) is 2024-02-29.
func NormalizedDate(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime takes the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar date in loc (time.Local when nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: %v", ErrInvalidInput, s, err)
	}
	return FromTime(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d. UTC keeps every day exactly 24h long.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Key is the zero-padded YYYY-MM-DD form used for event lookups.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) String() string {
	return d.Key()
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// MondayIndex is the column of d in a Monday-first week (Monday=0..Sunday=6).
func (d Date) MondayIndex() int {
	return (int(d.Weekday()) + 6) % 7
}

func (d Date) Before(o Date) bool { return DaysBetween(d, o) < 0 }
func (d Date) After(o Date) bool  { return DaysBetween(d, o) > 0 }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return NormalizedDate(d.Year, d.Month, d.Day+n)
}

// MarshalText encodes d as YYYY-MM-DD; the zero Date encodes as "".
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.Key()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the signed number of days from b to a: negative when
// a is before b, zero on the same date.
func DaysBetween(a, b Date) int {
	return int((a.Time().Unix() - b.Time().Unix()) / secondsPerDay)
}

// IsLeapYear applies the Gregorian leap rule.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysInMonth uses day 0 of the following month.
func DaysInMonth(year int, month time.Month) int {
	return NormalizedDate(year, month+1, 0).Day
}
