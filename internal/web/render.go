package web

import (
	"bytes"
	"html/template"
	"io"
	"strings"

	"daycount/internal/calendar"
)

type pageData struct {
	View      calendar.View
	AnchorKey string
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"summarize":  summarize,
		"cellClass":  cellClass,
		"countClass": countClass,
		"monthData":  newMonthData,
	}
}

// monthData is what the "month" template sees: one month plus the weekday
// header row and collapse threshold shared by every month.
type monthData struct {
	Title      string
	Ordinal    string
	Weeks      [][]calendar.DayCell
	Weekdays   []string
	CollapseAt int
}

func newMonthData(v calendar.View, m calendar.Month) monthData {
	return monthData{
		Title:      m.Title,
		Ordinal:    m.Ordinal,
		Weeks:      m.Weeks,
		Weekdays:   v.Weekdays,
		CollapseAt: v.Options.CollapseAt,
	}
}

func summarize(collapseAt int, c calendar.DayCell) calendar.EventSummary {
	return calendar.SummarizeEvents(c.Events, collapseAt)
}

// cellClass is the CSS class list of a <td>.
func cellClass(c calendar.DayCell) string {
	var classes []string
	if c.IsToday {
		classes = append(classes, "today")
	}
	if c.IsSelected {
		classes = append(classes, "selected")
	}
	if c.IsWeekend {
		classes = append(classes, "weekend")
	}
	return strings.Join(classes, " ")
}

// countClass is the CSS class list of the day-count element.
func countClass(c calendar.DayCell) string {
	classes := []string{"day-count"}
	if c.Anniversary != nil {
		classes = append(classes, "future-match")
	}
	if c.Milestone {
		classes = append(classes, "multiple-30")
	}
	return strings.Join(classes, " ")
}

// renderPage buffers the whole page so a template error never leaves a
// half-written response.
func (s *Server) renderPage(w io.Writer, view calendar.View) error {
	buf := new(bytes.Buffer)
	err := s.page.Execute(buf, pageData{
		View:      view,
		AnchorKey: view.Anchor.Key(),
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
