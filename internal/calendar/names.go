package calendar

import "time"

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var shortMonthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// indexed by time.Weekday (Sunday=0)
var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// WeekdayHeaders is the Monday-first column header row.
var WeekdayHeaders = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func MonthName(m time.Month) string {
	return monthNames[m-1]
}

func ShortMonthName(m time.Month) string {
	return shortMonthNames[m-1]
}

func WeekdayName(w time.Weekday) string {
	return weekdayNames[w]
}
