package calendar

import "fmt"

// Stats is the summary panel shown next to the anchor month.
type Stats struct {
	Year           int    `json:"year"`
	Weekday        string `json:"weekday"`
	FormattedDate  string `json:"formatted_date"`
	DaysIntoYear   int    `json:"days_into_year"`
	DaysLeftInYear int    `json:"days_left_in_year"`
	DaysInYear     int    `json:"days_in_year"`
}

// BuildStats derives the year-progress numbers for anchor. DaysIntoYear is
// 1 on January 1st, and DaysIntoYear+DaysLeftInYear is always the length of
// the year.
func BuildStats(anchor Date) Stats {
	total := DaysInYear(anchor.Year)
	into := 1 + DaysBetween(anchor, Date{Year: anchor.Year, Month: 1, Day: 1})
	weekday := WeekdayName(anchor.Weekday())

	return Stats{
		Year:    anchor.Year,
		Weekday: weekday,
		FormattedDate: fmt.Sprintf("%s, %02d %s %d",
			weekday, anchor.Day, ShortMonthName(anchor.Month), anchor.Year),
		DaysIntoYear:   into,
		DaysLeftInYear: total - into,
		DaysInYear:     total,
	}
}
