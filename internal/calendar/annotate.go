package calendar

import (
	"strconv"

	"daycount/internal/model"
)

// DefaultMilestoneInterval is the day distance between highlighted milestones.
const DefaultMilestoneInterval = 30

const (
	saturdayColumn = 5
	sundayColumn   = 6
	fridayColumn   = 4
)

// Anniversary marks a future date that shares month and day with the anchor.
type Anniversary struct {
	Years   float64 `json:"years"`
	Label   string  `json:"label"`
	Tooltip string  `json:"tooltip"`
}

// Annotation is everything known about a single populated day cell before
// the grid builder decides where milestones land.
type Annotation struct {
	Offset     int
	IsToday    bool
	IsSelected bool
	IsWeekend  bool
	// IsMilestone reports that the offset is a non-zero multiple of the
	// milestone interval. Weekend milestones are moved by the grid builder.
	IsMilestone bool
	Anniversary *Anniversary
	Events      []model.Event
}

// Annotate computes the per-day fields for cell relative to anchor. column
// is the Monday-first column the cell sits in. It has no side effects.
func Annotate(cell, anchor, today Date, column int, events *EventIndex, interval int) Annotation {
	if interval <= 0 {
		interval = DefaultMilestoneInterval
	}

	offset := DaysBetween(cell, anchor)
	abs := offset
	if abs < 0 {
		abs = -abs
	}

	return Annotation{
		Offset:      offset,
		IsToday:     cell == today,
		IsSelected:  cell == anchor,
		IsWeekend:   column == saturdayColumn || column == sundayColumn,
		IsMilestone: abs != 0 && abs%interval == 0,
		Anniversary: anniversary(cell, anchor, anchor == today),
		Events:      events.On(cell),
	}
}

// anniversary only fires for dates after the anchor. Earlier dates that
// share month and day are not reported.
func anniversary(cell, anchor Date, anchorIsToday bool) *Anniversary {
	if !cell.After(anchor) || cell.Day != anchor.Day || cell.Month != anchor.Month {
		return nil
	}

	years := float64(cell.Year-anchor.Year) + float64(int(cell.Month)-int(anchor.Month))/12
	label := FormatYears(years)

	unit := "years"
	if label == "1" {
		unit = "year"
	}
	from := "from selected date"
	if anchorIsToday {
		from = "from today"
	}

	return &Anniversary{
		Years:   years,
		Label:   label,
		Tooltip: label + " " + unit + " " + from,
	}
}

// FormatYears prints whole values without a decimal point and everything
// else rounded to one decimal place.
func FormatYears(years float64) string {
	if years == float64(int64(years)) {
		return strconv.FormatInt(int64(years), 10)
	}
	return strconv.FormatFloat(years, 'f', 1, 64)
}

// OffsetLabel is the text shown for an offset: blank for the anchor itself,
// "-N" in the past and "N" in the future.
func OffsetLabel(offset int) string {
	if offset == 0 {
		return ""
	}
	return strconv.Itoa(offset)
}
