package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"daycount/internal/calendar"
	"daycount/internal/config"
	"daycount/internal/events"
	"daycount/internal/ics"
)

// resolveAnchor parses raw, or returns today in loc when raw is empty.
func resolveAnchor(raw string, loc *time.Location) (calendar.Date, error) {
	if raw == "" {
		return calendar.Today(loc), nil
	}
	return calendar.ParseDate(raw)
}

// icsSources maps configured subscriptions to fetcher sources. The ID
// falls back to the name, then the URL. Entries without a URL are skipped.
func icsSources(conf *config.Config) []ics.Source {
	var out []ics.Source
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		if id == "" {
			id = c.URL
		}
		out = append(out, ics.Source{ID: id, URL: c.URL})
	}
	return out
}

// writeView prints the indented JSON view for anchor.
func writeView(w io.Writer, conf *config.Config, store *events.Store, anchor, today calendar.Date) error {
	opts := conf.CalendarOptions()
	first, last := calendar.Window(anchor, opts)
	idx, err := store.Index(first, last)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	view, err := calendar.BuildView(anchor, today, idx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
