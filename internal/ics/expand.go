package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"daycount/internal/calendar"
	appLog "daycount/internal/log"
	"daycount/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation decides which calendar day a timed event lands on.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// First and Last bound the expansion, both inclusive.
	First calendar.Date
	Last  calendar.Date

	// MaxOccurrencesPerEvent caps runaway rules. Zero uses the default.
	MaxOccurrencesPerEvent int
}

type occurrence struct {
	ev    ParsedEvent
	start time.Time
	end   time.Time
}

// Expand turns parsed VEVENTs into one model.Event per calendar day each
// occurrence touches within [First, Last]. The result is ordered by date,
// then start time, then summary.
func Expand(events []ParsedEvent, cfg ExpandConfig) ([]model.Event, error) {
	if cfg.First.IsZero() || cfg.Last.IsZero() {
		return nil, errors.New("expand: window is required")
	}
	if cfg.Last.Before(cfg.First) {
		return nil, errors.New("expand: Last is before First")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	var occs []occurrence
	for _, ev := range events {
		if ev.IsOverride() {
			continue
		}
		if ev.RawRRule == "" {
			occs = append(occs, applyOverride(ev, ev.Start, ev.End, overrides[ev.UID]))
			continue
		}
		occs = append(occs, expandRecurring(ev, overrides[ev.UID], cfg)...)
	}

	sort.SliceStable(occs, func(i, j int) bool {
		if !occs[i].start.Equal(occs[j].start) {
			return occs[i].start.Before(occs[j].start)
		}
		return occs[i].ev.Summary < occs[j].ev.Summary
	})

	var out []model.Event
	for _, o := range occs {
		for _, day := range coveredDays(o, cfg.DisplayLocation, cfg.First, cfg.Last) {
			out = append(out, toEvent(o.ev, day))
		}
	}

	// Multi-day events can interleave dates; keep per-date order stable.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []occurrence {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	// Widen by a day each side so zone differences never drop an edge day;
	// coveredDays clips to the exact window afterwards.
	from := time.Date(cfg.First.Year, cfg.First.Month, cfg.First.Day-1, 0, 0, 0, 0, loc)
	to := time.Date(cfg.Last.Year, cfg.Last.Month, cfg.Last.Day+2, 0, 0, 0, 0, loc)

	starts := set.Between(from, to, true)
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		appLog.Error("expand: truncated occurrences", errors.New("max occurrences reached"),
			"uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		starts = starts[:cfg.MaxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, applyOverride(ev, s, s.Add(dur), overrides))
	}
	return out
}

// applyOverride swaps in an overriding VEVENT whose RECURRENCE-ID matches start.
func applyOverride(ev ParsedEvent, start, end time.Time, overrides []ParsedEvent) occurrence {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		rid := *ov.Recurrence
		if rid.Equal(start) || (ev.AllDay && sameDate(rid, start)) {
			return occurrence{ev: ov, start: ov.Start, end: ov.End}
		}
	}
	return occurrence{ev: ev, start: start, end: end}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// coveredDays lists the calendar days within [lo, hi] an occurrence touches.
// All-day events use their literal dates with an exclusive end; timed events
// are read in loc and end-exclusive as well.
func coveredDays(o occurrence, loc *time.Location, lo, hi calendar.Date) []calendar.Date {
	start, end := o.start, o.end
	if !o.ev.AllDay {
		start, end = start.In(loc), end.In(loc)
	}

	first := calendar.FromTime(start)
	last := first
	if end.After(start) {
		last = calendar.FromTime(end.Add(-time.Nanosecond))
	}
	if first.Before(lo) {
		first = lo
	}
	if last.After(hi) {
		last = hi
	}

	var days []calendar.Date
	for d := first; !d.After(last); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func toEvent(ev ParsedEvent, day calendar.Date) model.Event {
	desc := ev.Description
	if desc == "" {
		desc = ev.Location
	}
	return model.Event{
		Date:        day.Key(),
		Text:        ev.Summary,
		Description: desc,
		SourceID:    ev.Source.ID,
	}
}
