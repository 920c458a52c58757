package model

// DateLayout is the key format used for every event date lookup.
const DateLayout = "2006-01-02"

// Event is a single dated entry shown in a day cell. Several events may
// share a date; their order is the order of the source list.
type Event struct {
	// Date is a zero-padded YYYY-MM-DD string.
	Date string `yaml:"date" json:"date"`

	// Text is the short label rendered inside the cell.
	Text string `yaml:"text" json:"text"`

	// Description is the long label shown on hover.
	Description string `yaml:"description" json:"description"`

	// SourceID names where the event came from (events file, ICS source ID).
	SourceID string `yaml:"-" json:"source_id,omitempty"`
}
