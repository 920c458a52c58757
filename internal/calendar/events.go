package calendar

import (
	"strings"

	"daycount/internal/model"
)

// EventIndex answers "which events fall on this date" by exact YYYY-MM-DD
// string match. It is read-only after construction.
type EventIndex struct {
	byDate map[string][]model.Event
	total  int
}

func NewEventIndex(events []model.Event) *EventIndex {
	ix := &EventIndex{byDate: make(map[string][]model.Event)}
	for _, ev := range events {
		ix.byDate[ev.Date] = append(ix.byDate[ev.Date], ev)
	}
	ix.total = len(events)
	return ix
}

// On returns the events dated d in source order. The result is a copy and
// has length 0 when nothing matches.
func (ix *EventIndex) On(d Date) []model.Event {
	if ix == nil {
		return nil
	}
	found := ix.byDate[d.Key()]
	if len(found) == 0 {
		return nil
	}
	out := make([]model.Event, len(found))
	copy(out, found)
	return out
}

// Len is the number of indexed events.
func (ix *EventIndex) Len() int {
	if ix == nil {
		return 0
	}
	return ix.total
}

// DefaultCollapseThreshold is the event count at which a cell stops listing
// events inline and shows a single indicator instead.
const DefaultCollapseThreshold = 3

type EventDisplayMode string

const (
	EventsNone      EventDisplayMode = "none"
	EventsInline    EventDisplayMode = "inline"
	EventsCollapsed EventDisplayMode = "collapsed"
)

// EventSummary is the presentation contract for a cell's events.
type EventSummary struct {
	Mode  EventDisplayMode `json:"mode"`
	Count int              `json:"count"`
	// Items is set in inline mode; each item carries its own description.
	Items     []model.Event `json:"items,omitempty"`
	Separator string        `json:"separator,omitempty"`
	// Tooltip is set in collapsed mode: one "text: description" line per event.
	Tooltip string `json:"tooltip,omitempty"`
}

// SummarizeEvents decides how a list of events should be shown. Fewer than
// collapseAt events are listed inline; collapseAt or more collapse into one
// indicator. A non-positive collapseAt uses DefaultCollapseThreshold.
func SummarizeEvents(events []model.Event, collapseAt int) EventSummary {
	if collapseAt <= 0 {
		collapseAt = DefaultCollapseThreshold
	}
	switch {
	case len(events) == 0:
		return EventSummary{Mode: EventsNone}
	case len(events) < collapseAt:
		return EventSummary{
			Mode:      EventsInline,
			Count:     len(events),
			Items:     events,
			Separator: ", ",
		}
	}

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, ev.Text+": "+ev.Description)
	}
	return EventSummary{
		Mode:    EventsCollapsed,
		Count:   len(events),
		Tooltip: strings.Join(lines, "\n"),
	}
}
