package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"daycount/internal/calendar"
	"daycount/internal/ics"
	appLog "daycount/internal/log"
	"daycount/internal/model"
)

// StoreOptions wires the event sources.
type StoreOptions struct {
	EventsFile string
	Fetcher    *ics.Fetcher
	Sources    []ics.Source
	// Location decides the day timed ICS events fall on.
	Location *time.Location
}

// snapshot is replaced wholesale on every refresh and never mutated.
type snapshot struct {
	entries  []Entry
	parsed   []ics.ParsedEvent
	loadedAt time.Time
	version  uint64
}

type indexCache struct {
	version     uint64
	first, last calendar.Date
	index       *calendar.EventIndex
}

// Store owns the current event list. Readers always see a complete
// snapshot; Refresh builds a new one and swaps it in.
type Store struct {
	opts StoreOptions

	mu   sync.RWMutex
	snap snapshot

	cacheMu sync.Mutex
	cache   *indexCache
}

func NewStore(opts StoreOptions) *Store {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Store{opts: opts}
}

// NewStaticStore serves a fixed event list, mainly for tests and -once runs.
func NewStaticStore(list []model.Event) *Store {
	entries := make([]Entry, 0, len(list))
	for _, ev := range list {
		entries = append(entries, Entry{Date: ev.Date, Text: ev.Text, Description: ev.Description})
	}
	s := NewStore(StoreOptions{})
	s.snap = snapshot{entries: entries, loadedAt: time.Now(), version: 1}
	return s
}

// Refresh reloads the events file and every ICS source. A broken events
// file aborts the refresh and keeps the previous snapshot; failing ICS
// sources are reported but the rest of the refresh still lands.
func (s *Store) Refresh(ctx context.Context) error {
	entries, err := LoadFile(s.opts.EventsFile)
	if err != nil {
		return err
	}

	var parsed []ics.ParsedEvent
	var errs []error
	if s.opts.Fetcher != nil && len(s.opts.Sources) > 0 {
		results, fetchErrs := s.opts.Fetcher.FetchAll(ctx, s.opts.Sources)
		errs = append(errs, fetchErrs...)
		for _, res := range results {
			evs, err := ics.ParseICS(res.Source, res.Body)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			parsed = append(parsed, evs...)
		}
	}

	s.mu.Lock()
	s.snap = snapshot{
		entries:  entries,
		parsed:   parsed,
		loadedAt: time.Now(),
		version:  s.snap.version + 1,
	}
	s.mu.Unlock()

	appLog.Info("events refreshed",
		"file_entries", len(entries),
		"ics_events", len(parsed),
		"ics_sources", len(s.opts.Sources),
		"errors", len(errs),
	)

	if len(errs) > 0 {
		return fmt.Errorf("events refresh: %w", errors.Join(errs...))
	}
	return nil
}

// LoadedAt is the time of the last successful refresh.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.loadedAt
}

// Events returns every event dated within [first, last] plus all plain
// file entries. File entries precede ICS events on the same date.
func (s *Store) Events(first, last calendar.Date) ([]model.Event, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	return s.expand(snap, first, last)
}

// Index returns a lookup index for [first, last]. The most recent index is
// reused while neither the window nor the snapshot changed.
func (s *Store) Index(first, last calendar.Date) (*calendar.EventIndex, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if c := s.cache; c != nil && c.version == snap.version && c.first == first && c.last == last {
		return c.index, nil
	}

	list, err := s.expand(snap, first, last)
	if err != nil {
		return nil, err
	}
	idx := calendar.NewEventIndex(list)
	s.cache = &indexCache{version: snap.version, first: first, last: last, index: idx}
	return idx, nil
}

func (s *Store) expand(snap snapshot, first, last calendar.Date) ([]model.Event, error) {
	out := ExpandEntries(snap.entries, first, last)
	if len(snap.parsed) == 0 {
		return out, nil
	}
	fromICS, err := ics.Expand(snap.parsed, ics.ExpandConfig{
		DisplayLocation: s.opts.Location,
		First:           first,
		Last:            last,
	})
	if err != nil {
		return nil, err
	}
	return append(out, fromICS...), nil
}
