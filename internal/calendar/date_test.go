package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(t *testing.T, s string) Date {
	t.Helper()
	out, err := ParseDate(s)
	require.NoError(t, err, "parse %q", s)
	return out
}

func TestNormalizedDate(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  string
	}{
		{"plain", 2024, time.March, 15, "2024-03-15"},
		{"month overflow", 2024, 13, 1, "2025-01-01"},
		{"negative month", 2024, 0, 1, "2023-12-01"},
		{"far negative month", 2024, -13, 1, "2022-11-01"},
		{"day zero is last of previous month", 2024, time.March, 0, "2024-02-29"},
		{"day overflow", 2023, time.February, 29, "2023-03-01"},
		{"sixty months ahead", 2024, time.December + 60, 1, "2029-12-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizedDate(tt.year, tt.month, tt.day).Key())
		})
	}
}

func TestDaysBetweenAntisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"2024-03-15", "2024-03-15"},
		{"2024-03-15", "2025-03-15"},
		{"1999-12-31", "2000-01-01"},
		{"2024-03-09", "2024-03-11"}, // EU DST switch-over weekend
		{"1900-02-28", "2100-03-01"},
	}
	for _, p := range pairs {
		a, b := d(t, p[0]), d(t, p[1])
		assert.Equal(t, -DaysBetween(b, a), DaysBetween(a, b), "%s vs %s", p[0], p[1])
	}

	assert.Equal(t, 0, DaysBetween(d(t, "2024-03-15"), d(t, "2024-03-15")))
	assert.Equal(t, 365, DaysBetween(d(t, "2025-03-15"), d(t, "2024-03-15")))
	assert.Equal(t, -1, DaysBetween(d(t, "1999-12-31"), d(t, "2000-01-01")))
}

func TestDaysInYear(t *testing.T) {
	assert.Equal(t, 366, DaysInYear(2000))
	assert.Equal(t, 365, DaysInYear(1900))
	assert.Equal(t, 365, DaysInYear(2023))
	assert.Equal(t, 366, DaysInYear(2024))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 31, DaysInMonth(2024, time.December))
	assert.Equal(t, 30, DaysInMonth(2024, time.September))
}

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, d(t, "2021-02-01").MondayIndex()) // Monday
	assert.Equal(t, 4, d(t, "2024-03-01").MondayIndex()) // Friday
	assert.Equal(t, 6, d(t, "2024-09-01").MondayIndex()) // Sunday
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "2024-3-5", "2024/03/05", "2024-02-30"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidInput, "input=%q", in)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Date `json:"a"`
		Z Date `json:"z"`
	}{A: d(t, "2024-03-05")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2024-03-05","z":""}`, string(b))

	var back struct {
		A Date `json:"a"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 5}, back.A)
}
