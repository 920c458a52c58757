package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycount/internal/calendar"
)

var sampleICS = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//daycount//test//EN",
	"BEGIN:VEVENT",
	"UID:trip@test",
	"DTSTAMP:20240101T000000Z",
	"DTSTART;VALUE=DATE:20240315",
	"DTEND;VALUE=DATE:20240317",
	"SUMMARY:Trip",
	"DESCRIPTION:Two days away",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup@test",
	"DTSTAMP:20240101T000000Z",
	"DTSTART:20240304T090000Z",
	"DTEND:20240304T100000Z",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE:20240311T090000Z",
	"SUMMARY:Standup",
	"LOCATION:Room 1",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup@test",
	"DTSTAMP:20240101T000000Z",
	"RECURRENCE-ID:20240318T090000Z",
	"DTSTART:20240319T090000Z",
	"DTEND:20240319T100000Z",
	"SUMMARY:Standup (moved)",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTAMP:20240101T000000Z",
	"DTSTART;VALUE=DATE:20240301",
	"SUMMARY:No UID",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "test"}, []byte(sampleICS))
	require.NoError(t, err)
	require.Len(t, events, 3, "event without UID is skipped")

	trip := events[0]
	assert.True(t, trip.AllDay)
	assert.Equal(t, "2024-03-15", calendar.FromTime(trip.Start).Key())
	assert.Equal(t, "2024-03-17", calendar.FromTime(trip.End).Key())

	standup := events[1]
	assert.False(t, standup.AllDay)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)
	assert.False(t, standup.IsOverride())

	assert.True(t, events[2].IsOverride())
}

func TestParseICSEmptyBody(t *testing.T) {
	_, err := ParseICS(Source{ID: "x"}, nil)
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	parsed, err := ParseICS(Source{ID: "test"}, []byte(sampleICS))
	require.NoError(t, err)

	first, _ := calendar.ParseDate("2024-03-01")
	last, _ := calendar.ParseDate("2024-03-31")
	events, err := Expand(parsed, ExpandConfig{DisplayLocation: time.UTC, First: first, Last: last})
	require.NoError(t, err)

	var got []string
	for _, ev := range events {
		got = append(got, ev.Date+" "+ev.Text)
	}
	assert.Equal(t, []string{
		"2024-03-04 Standup",
		"2024-03-15 Trip",
		"2024-03-16 Trip",
		"2024-03-19 Standup (moved)",
		"2024-03-25 Standup",
	}, got)

	assert.Equal(t, "Room 1", events[0].Description, "location stands in for a missing description")
	assert.Equal(t, "Two days away", events[1].Description)
	assert.Equal(t, "test", events[1].SourceID)
}

func TestExpandClipsToWindow(t *testing.T) {
	parsed, err := ParseICS(Source{ID: "test"}, []byte(sampleICS))
	require.NoError(t, err)

	first, _ := calendar.ParseDate("2024-03-16")
	last, _ := calendar.ParseDate("2024-03-20")
	events, err := Expand(parsed, ExpandConfig{DisplayLocation: time.UTC, First: first, Last: last})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2024-03-16", events[0].Date)
	assert.Equal(t, "2024-03-19", events[1].Date)
}

func TestExpandZonedExDateAndOverride(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//daycount//test//EN",
		"BEGIN:VEVENT",
		"UID:weekly@test",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;TZID=Asia/Tokyo:20240304T090000",
		"DTEND;TZID=Asia/Tokyo:20240304T100000",
		"RRULE:FREQ=WEEKLY;COUNT=4",
		"EXDATE;TZID=Asia/Tokyo:20240311T090000",
		"SUMMARY:Weekly",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:weekly@test",
		"DTSTAMP:20240101T000000Z",
		"RECURRENCE-ID;TZID=Asia/Tokyo:20240318T090000",
		"DTSTART;TZID=Asia/Tokyo:20240320T090000",
		"DTEND;TZID=Asia/Tokyo:20240320T100000",
		"SUMMARY:Weekly (moved)",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	parsed, err := ParseICS(Source{ID: "test"}, []byte(body))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	require.Len(t, parsed[0].ExDates, 1)
	assert.True(t, parsed[0].ExDates[0].Equal(time.Date(2024, 3, 11, 9, 0, 0, 0, tokyo)))

	first, _ := calendar.ParseDate("2024-03-01")
	last, _ := calendar.ParseDate("2024-03-31")
	events, err := Expand(parsed, ExpandConfig{DisplayLocation: tokyo, First: first, Last: last})
	require.NoError(t, err)

	var got []string
	for _, ev := range events {
		got = append(got, ev.Date+" "+ev.Text)
	}
	assert.Equal(t, []string{
		"2024-03-04 Weekly",
		"2024-03-20 Weekly (moved)",
		"2024-03-25 Weekly",
	}, got)
}

func TestCoveredDaysClampsToWindow(t *testing.T) {
	o := occurrence{
		ev:    ParsedEvent{AllDay: true},
		start: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		end:   time.Date(2090, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	lo, _ := calendar.ParseDate("2024-03-30")
	hi, _ := calendar.ParseDate("2024-04-02")

	days := coveredDays(o, time.UTC, lo, hi)
	require.Len(t, days, 4)
	assert.Equal(t, "2024-03-30", days[0].Key())
	assert.Equal(t, "2024-04-02", days[3].Key())

	outside := occurrence{
		ev:    ParsedEvent{AllDay: true},
		start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		end:   time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	assert.Empty(t, coveredDays(outside, time.UTC, lo, hi))
}

func TestExpandRejectsBadWindow(t *testing.T) {
	first, _ := calendar.ParseDate("2024-03-16")
	last, _ := calendar.ParseDate("2024-03-01")
	_, err := Expand(nil, ExpandConfig{First: first, Last: last})
	assert.Error(t, err)

	_, err = Expand(nil, ExpandConfig{})
	assert.Error(t, err)
}

func TestFetcherConditionalAndFallback(t *testing.T) {
	var hits atomic.Int32
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if down.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), srv.Client())
	src := Source{ID: "s", URL: srv.URL + "/cal.ics?token=secret"}

	res, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, sampleICS, string(res.Body))

	res, err = f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache, "304 should reuse the cached body")

	down.Store(true)
	res, err = f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, int32(3), hits.Load())

	results, errs := f.FetchAll(context.Background(), []Source{src, {ID: "empty"}})
	assert.Len(t, results, 1)
	assert.Len(t, errs, 1)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private.ics?token=abc"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
