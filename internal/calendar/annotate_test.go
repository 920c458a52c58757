package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycount/internal/model"
)

func TestAnnotateOffsetAndFlags(t *testing.T) {
	anchor := d(t, "2024-03-15")
	today := d(t, "2024-03-20")

	ann := Annotate(anchor, anchor, today, 4, nil, 30)
	assert.Equal(t, 0, ann.Offset)
	assert.True(t, ann.IsSelected)
	assert.False(t, ann.IsToday)
	assert.False(t, ann.IsMilestone)
	assert.Empty(t, OffsetLabel(ann.Offset))

	ann = Annotate(today, anchor, today, 2, nil, 30)
	assert.Equal(t, 5, ann.Offset)
	assert.True(t, ann.IsToday)
	assert.False(t, ann.IsSelected)
	assert.Equal(t, "5", OffsetLabel(ann.Offset))

	ann = Annotate(d(t, "2024-02-14"), anchor, today, 2, nil, 30)
	assert.Equal(t, -30, ann.Offset)
	assert.True(t, ann.IsMilestone)
	assert.Equal(t, "-30", OffsetLabel(ann.Offset))
}

func TestAnnotateTodayAndSelectedTogether(t *testing.T) {
	anchor := d(t, "2024-03-15")
	ann := Annotate(anchor, anchor, anchor, 4, nil, 30)
	assert.True(t, ann.IsToday)
	assert.True(t, ann.IsSelected)
}

func TestAnnotateWeekendColumns(t *testing.T) {
	anchor := d(t, "2024-03-15")
	for col := 0; col < 7; col++ {
		ann := Annotate(anchor, anchor, anchor, col, nil, 30)
		assert.Equal(t, col == 5 || col == 6, ann.IsWeekend, "column %d", col)
	}
}

func TestAnnotateAnniversary(t *testing.T) {
	anchor := d(t, "2024-03-15")

	tests := []struct {
		name    string
		cell    string
		today   string
		want    bool
		label   string
		tooltip string
	}{
		{"one year later", "2025-03-15", "2024-03-15", true, "1", "1 year from today"},
		{"selected date", "2026-03-15", "2020-01-01", true, "2", "2 years from selected date"},
		{"month differs", "2026-09-15", "2024-03-15", false, "", ""},
		{"day differs", "2025-03-16", "2024-03-15", false, "", ""},
		{"anchor itself", "2024-03-15", "2024-03-15", false, "", ""},
		{"past occurrence excluded", "2023-03-15", "2024-03-15", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann := Annotate(d(t, tt.cell), anchor, d(t, tt.today), 0, nil, 30)
			if !tt.want {
				assert.Nil(t, ann.Anniversary)
				return
			}
			require.NotNil(t, ann.Anniversary)
			assert.Equal(t, tt.label, ann.Anniversary.Label)
			assert.Equal(t, tt.tooltip, ann.Anniversary.Tooltip)
		})
	}
}

func TestFormatYears(t *testing.T) {
	assert.Equal(t, "1", FormatYears(1))
	assert.Equal(t, "3", FormatYears(3.0))
	assert.Equal(t, "1.5", FormatYears(1.5))
	assert.Equal(t, "0.1", FormatYears(1.0/12))
	assert.Equal(t, "2.9", FormatYears(2+11.0/12))
}

func TestAnnotateEvents(t *testing.T) {
	idx := NewEventIndex([]model.Event{
		{Date: "2024-03-05", Text: "A"},
		{Date: "2024-03-06", Text: "B"},
		{Date: "2024-03-05", Text: "C"},
	})
	anchor := d(t, "2024-03-01")

	ann := Annotate(d(t, "2024-03-05"), anchor, anchor, 1, idx, 30)
	require.Len(t, ann.Events, 2)
	assert.Equal(t, "A", ann.Events[0].Text)
	assert.Equal(t, "C", ann.Events[1].Text)

	ann = Annotate(d(t, "2024-03-07"), anchor, anchor, 3, idx, 30)
	assert.Empty(t, ann.Events)
}

func TestAnnotateCustomInterval(t *testing.T) {
	anchor := d(t, "2024-03-01")
	assert.True(t, Annotate(d(t, "2024-03-08"), anchor, anchor, 4, nil, 7).IsMilestone)
	assert.False(t, Annotate(d(t, "2024-03-08"), anchor, anchor, 4, nil, 30).IsMilestone)
	// non-positive falls back to 30
	assert.True(t, Annotate(d(t, "2024-03-31"), anchor, anchor, 6, nil, 0).IsMilestone)
}
