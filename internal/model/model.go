package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Event is a single scheduled content/marketing activity as stored in the
// backing file. JSON keys match the spreadsheet column names, including the
// embedded space and slash in "Focus / Notes".
//
// ID is not part of the spreadsheet layout. It gives every record a stable
// identity so that callers never have to address records by position.
type Event struct {
	ID         string `json:"id"`
	Date       string `json:"Date"`
	DayName    string `json:"Day Name"`
	StartTime  string `json:"Start Time"`
	EndTime    string `json:"End Time"`
	EventName  string `json:"Event Name"`
	Format     string `json:"Format"`
	Platform   string `json:"Platform"`
	FocusNotes string `json:"Focus / Notes"`
	Completed  bool   `json:"Completed"`
}

// Fields is the user-editable part of an Event. Updates always replace all
// of them at once.
type Fields struct {
	Date       string `json:"Date"`
	DayName    string `json:"Day Name"`
	StartTime  string `json:"Start Time"`
	EndTime    string `json:"End Time"`
	EventName  string `json:"Event Name"`
	Format     string `json:"Format"`
	Platform   string `json:"Platform"`
	FocusNotes string `json:"Focus / Notes"`
	Completed  bool   `json:"Completed"`
}

func (e Event) Fields() Fields {
	return Fields{
		Date:       e.Date,
		DayName:    e.DayName,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		EventName:  e.EventName,
		Format:     e.Format,
		Platform:   e.Platform,
		FocusNotes: e.FocusNotes,
		Completed:  e.Completed,
	}
}

// ErrMissingFields is returned by Fields.Validate.
var ErrMissingFields = errors.New("please fill in at least Event Name and Date")

// Validate checks the fields a new record cannot do without.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.EventName) == "" || strings.TrimSpace(f.Date) == "" {
		return ErrMissingFields
	}
	return nil
}

// Event builds a record carrying the given id. Line breaks in the text
// fields are normalized to "\n".
func (f Fields) Event(id string) Event {
	return Event{
		ID:         id,
		Date:       f.Date,
		DayName:    f.DayName,
		StartTime:  f.StartTime,
		EndTime:    f.EndTime,
		EventName:  f.EventName,
		Format:     f.Format,
		Platform:   f.Platform,
		FocusNotes: f.FocusNotes,
		Completed:  f.Completed,
	}.Normalized()
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalized returns a copy of e with every "\r\n" and lone "\r" in its text
// fields replaced by "\n". CSV readers fold CRLF inside quoted fields, so
// records only ever hold LF line breaks.
func (e Event) Normalized() Event {
	for _, s := range []*string{&e.Date, &e.DayName, &e.StartTime, &e.EndTime, &e.EventName, &e.Format, &e.Platform, &e.FocusNotes} {
		*s = newlines.Replace(*s)
	}
	return e
}

// NewID returns a fresh time-ordered identifier for a record.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// seedNamespace scopes the deterministic identifiers of seed records.
var seedNamespace = uuid.MustParse("6f1c2a7e-2b1d-4f0a-9c43-5d7e1b9a0c11")

// SeedID returns a deterministic identifier for the n-th seed record.
func SeedID(n int) string {
	return uuid.NewSHA1(seedNamespace, []byte{byte(n)}).String()
}

// Clone returns a copy of events that shares no backing array with the input.
func Clone(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
