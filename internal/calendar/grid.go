package calendar

import (
	"strconv"
	"time"

	"daycount/internal/model"
)

const (
	daysPerWeek  = 7
	maxGridWeeks = 6
)

// MonthSpec identifies one month of the view. Sequence counts months from
// the anchor's month: 0 for the anchor month, negative before, positive after.
type MonthSpec struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Sequence int        `json:"sequence"`
}

// MonthSpecFor returns the month that is seq months away from anchor's month.
func MonthSpecFor(anchor Date, seq int) MonthSpec {
	first := NormalizedDate(anchor.Year, anchor.Month+time.Month(seq), 1)
	return MonthSpec{Year: first.Year, Month: first.Month, Sequence: seq}
}

// Title is the "January 2025" style header.
func (s MonthSpec) Title() string {
	return MonthName(s.Month) + " " + strconv.Itoa(s.Year)
}

// Ordinal is "(n)" for months after the anchor's month and empty otherwise.
func (s MonthSpec) Ordinal() string {
	if s.Sequence <= 0 {
		return ""
	}
	return "(" + strconv.Itoa(s.Sequence) + ")"
}

// DayCell is one slot of a month grid. Padding cells have Day == 0 and no
// other fields set.
type DayCell struct {
	Day         int           `json:"day,omitempty"`
	Date        Date          `json:"date"`
	Offset      int           `json:"offset"`
	OffsetLabel string        `json:"offset_label,omitempty"`
	IsToday     bool          `json:"is_today,omitempty"`
	IsSelected  bool          `json:"is_selected,omitempty"`
	IsWeekend   bool          `json:"is_weekend,omitempty"`
	Milestone   bool          `json:"milestone,omitempty"`
	Anniversary *Anniversary  `json:"anniversary,omitempty"`
	Events      []model.Event `json:"events,omitempty"`
}

func (c DayCell) Empty() bool {
	return c.Day == 0
}

// Month is a built month grid: up to six Monday-first weeks.
type Month struct {
	Spec    MonthSpec   `json:"spec"`
	Title   string      `json:"title"`
	Ordinal string      `json:"ordinal,omitempty"`
	Weeks   [][]DayCell `json:"weeks"`
}

// fridayMark remembers the most recent Friday cell seen while walking one
// grid, so a weekend milestone can be moved back onto it.
type fridayMark struct {
	week, col int
	seen      bool
}

// BuildMonth lays out spec as a Monday-first grid and annotates every day
// relative to anchor. It only reads its arguments; each call is independent.
func BuildMonth(spec MonthSpec, anchor, today Date, events *EventIndex, opts Options) Month {
	opts = opts.withDefaults()

	first := NormalizedDate(spec.Year, spec.Month, 1)
	lead := first.MondayIndex()
	days := DaysInMonth(first.Year, first.Month)

	out := Month{
		Spec:    spec,
		Title:   spec.Title(),
		Ordinal: spec.Ordinal(),
	}

	var friday fridayMark
	day := 1
	for w := 0; w < maxGridWeeks && day <= days; w++ {
		week := make([]DayCell, daysPerWeek)
		out.Weeks = append(out.Weeks, week)

		for c := 0; c < daysPerWeek; c++ {
			if (w == 0 && c < lead) || day > days {
				continue
			}
			date := Date{Year: first.Year, Month: first.Month, Day: day}
			ann := Annotate(date, anchor, today, c, events, opts.MilestoneInterval)
			week[c] = cellFrom(date, ann)
			friday = placeMilestone(out.Weeks, w, c, ann, friday)
			day++
		}
	}

	return out
}

// placeMilestone applies the milestone flag for the cell at (w, c) and
// returns the updated Friday mark. Weekday milestones stay where they are;
// weekend ones move to the last Friday of this grid, or are dropped when
// the grid has no Friday before them.
func placeMilestone(weeks [][]DayCell, w, c int, ann Annotation, friday fridayMark) fridayMark {
	if ann.Offset == 0 {
		return friday
	}
	if c == fridayColumn {
		friday = fridayMark{week: w, col: c, seen: true}
	}
	if !ann.IsMilestone {
		return friday
	}
	if !ann.IsWeekend {
		weeks[w][c].Milestone = true
	} else if friday.seen {
		weeks[friday.week][friday.col].Milestone = true
	}
	return friday
}

func cellFrom(date Date, ann Annotation) DayCell {
	return DayCell{
		Day:         date.Day,
		Date:        date,
		Offset:      ann.Offset,
		OffsetLabel: OffsetLabel(ann.Offset),
		IsToday:     ann.IsToday,
		IsSelected:  ann.IsSelected,
		IsWeekend:   ann.IsWeekend,
		Anniversary: ann.Anniversary,
		Events:      ann.Events,
	}
}
