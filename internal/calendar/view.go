package calendar

import "fmt"

const (
	DefaultMonthsBefore = 1
	DefaultMonthsAfter  = 60
)

// Options tunes a render pass. Zero values fall back to the defaults.
type Options struct {
	MonthsBefore      int
	MonthsAfter       int
	MilestoneInterval int
	// CollapseAt is handed to SummarizeEvents by renderers.
	CollapseAt int
}

func DefaultOptions() Options {
	return Options{
		MonthsBefore:      DefaultMonthsBefore,
		MonthsAfter:       DefaultMonthsAfter,
		MilestoneInterval: DefaultMilestoneInterval,
		CollapseAt:        DefaultCollapseThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MonthsBefore <= 0 {
		o.MonthsBefore = d.MonthsBefore
	}
	if o.MonthsAfter <= 0 {
		o.MonthsAfter = d.MonthsAfter
	}
	if o.MilestoneInterval <= 0 {
		o.MilestoneInterval = d.MilestoneInterval
	}
	if o.CollapseAt <= 0 {
		o.CollapseAt = d.CollapseAt
	}
	return o
}

// View is the output of one render pass: the months before the anchor, the
// anchor month, the stats panel and the months after.
type View struct {
	Anchor   Date     `json:"anchor"`
	Today    Date     `json:"today"`
	Weekdays []string `json:"weekdays"`
	Before   []Month  `json:"before"`
	Current  Month    `json:"current"`
	Stats    Stats    `json:"stats"`
	After    []Month  `json:"after"`
	Options  Options  `json:"-"`
}

// Months returns every month of the view in display order.
func (v View) Months() []Month {
	out := make([]Month, 0, len(v.Before)+1+len(v.After))
	out = append(out, v.Before...)
	out = append(out, v.Current)
	return append(out, v.After...)
}

// BuildView runs a full render pass for anchor. Nothing is reused from a
// previous pass. A zero anchor is rejected with ErrInvalidInput.
func BuildView(anchor, today Date, events *EventIndex, opts Options) (View, error) {
	if anchor.IsZero() {
		return View{}, fmt.Errorf("%w: anchor date is required", ErrInvalidInput)
	}
	opts = opts.withDefaults()

	v := View{
		Anchor:   anchor,
		Today:    today,
		Weekdays: WeekdayHeaders,
		Stats:    BuildStats(anchor),
		Options:  opts,
	}

	for seq := -opts.MonthsBefore; seq < 0; seq++ {
		v.Before = append(v.Before, BuildMonth(MonthSpecFor(anchor, seq), anchor, today, events, opts))
	}
	v.Current = BuildMonth(MonthSpecFor(anchor, 0), anchor, today, events, opts)
	for seq := 1; seq <= opts.MonthsAfter; seq++ {
		v.After = append(v.After, BuildMonth(MonthSpecFor(anchor, seq), anchor, today, events, opts))
	}

	return v, nil
}

// Window is the first and last date covered by a view built for anchor.
// Event sources use it to bound recurrence expansion.
func Window(anchor Date, opts Options) (first, last Date) {
	opts = opts.withDefaults()
	start := MonthSpecFor(anchor, -opts.MonthsBefore)
	end := MonthSpecFor(anchor, opts.MonthsAfter)
	first = Date{Year: start.Year, Month: start.Month, Day: 1}
	last = NormalizedDate(end.Year, end.Month+1, 0)
	return first, last
}
