package events

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"daycount/internal/calendar"
	appLog "daycount/internal/log"
	"daycount/internal/model"
)

const fileSourceID = "file"

// Entry is one record of the events file. A plain entry appears on Date
// only; an entry with RRule repeats from Date following the rule.
type Entry struct {
	Date        string `yaml:"date"`
	Text        string `yaml:"text"`
	Description string `yaml:"description"`
	RRule       string `yaml:"rrule,omitempty"`
}

type fileBody struct {
	Events []Entry `yaml:"events"`
}

// LoadFile reads an events file. JSON files parse too since JSON is YAML.
// A missing file yields no entries.
func LoadFile(path string) ([]Entry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("events file not found; starting empty", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("read events file: %w", err)
	}

	var body fileBody
	if err := yaml.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode events file %s: %w", path, err)
	}
	return body.Events, nil
}

// ExpandEntries turns file entries into events for [first, last]. Entries
// keep their file order on each date. Plain entries pass through with their
// date string untouched, so lookups stay exact-match.
func ExpandEntries(entries []Entry, first, last calendar.Date) []model.Event {
	var out []model.Event
	for _, e := range entries {
		if e.RRule == "" {
			out = append(out, e.event(e.Date))
			continue
		}
		dates, err := recurrences(e, first, last)
		if err != nil {
			appLog.Error("events: skipping recurring entry", err, "date", e.Date, "rrule", e.RRule)
			continue
		}
		for _, d := range dates {
			out = append(out, e.event(d.Key()))
		}
	}
	return out
}

func recurrences(e Entry, first, last calendar.Date) ([]calendar.Date, error) {
	start, err := calendar.ParseDate(e.Date)
	if err != nil {
		return nil, err
	}
	r, err := rrule.StrToRRule(e.RRule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule: %w", err)
	}
	r.DTStart(start.Time())

	times := r.Between(first.Time(), last.Time().Add(24*time.Hour-time.Nanosecond), true)
	out := make([]calendar.Date, 0, len(times))
	for _, t := range times {
		out = append(out, calendar.FromTime(t))
	}
	return out, nil
}

func (e Entry) event(date string) model.Event {
	return model.Event{
		Date:        date,
		Text:        e.Text,
		Description: e.Description,
		SourceID:    fileSourceID,
	}
}
