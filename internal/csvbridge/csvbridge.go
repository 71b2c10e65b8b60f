// Package csvbridge converts the event collection to and from the flat CSV
// layout used when copying data in and out of a spreadsheet.
//
// The only representational difference from the JSON store is Completed:
// spreadsheets write booleans as TRUE/FALSE, so that is what goes out, and
// anything that upper-cases to TRUE comes back as true.
package csvbridge

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"eventcal/internal/metric"
	"eventcal/internal/model"
)

// Column names, in export order.
const (
	ColDate       = "Date"
	ColDayName    = "Day Name"
	ColStartTime  = "Start Time"
	ColEndTime    = "End Time"
	ColEventName  = "Event Name"
	ColFormat     = "Format"
	ColPlatform   = "Platform"
	ColFocusNotes = "Focus / Notes"
	ColCompleted  = "Completed"
)

// Header is the fixed export column order.
var Header = []string{
	ColDate, ColDayName, ColStartTime, ColEndTime, ColEventName,
	ColFormat, ColPlatform, ColFocusNotes, ColCompleted,
}

const (
	tokenTrue  = "TRUE"
	tokenFalse = "FALSE"
)

// ParseError reports CSV input that cannot be turned into records.
type ParseError struct {
	Line int // 1-based; 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csv parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ToCSV renders records with the header row first.
func ToCSV(records []model.Event) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV streams the CSV rendering of records to w.
func WriteCSV(w io.Writer, records []model.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, ev := range records {
		if err := cw.Write(row(ev)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	metric.CSVRows("export", len(records))
	return nil
}

func row(ev model.Event) []string {
	return []string{
		ev.Date, ev.DayName, ev.StartTime, ev.EndTime, ev.EventName,
		ev.Format, ev.Platform, ev.FocusNotes, FormatBool(ev.Completed),
	}
}

// FormatBool renders a spreadsheet boolean literal.
func FormatBool(b bool) string {
	if b {
		return tokenTrue
	}
	return tokenFalse
}

// ParseBool accepts "TRUE" in any letter case. Everything else, including
// empty and unrecognized text, is false.
func ParseBool(s string) bool {
	return strings.ToUpper(strings.TrimSpace(s)) == tokenTrue
}

// FromCSV parses text into records. Each record gets a fresh ID; nothing is
// persisted.
func FromCSV(text string) ([]model.Event, error) {
	return ReadCSV(strings.NewReader(text))
}

// ReadCSV parses a CSV table with a header row. Columns are matched by
// name, so their order does not matter; unknown columns are ignored and
// missing ones read as empty.
func ReadCSV(r io.Reader) ([]model.Event, error) {
	cr := csv.NewReader(r)
	// Every row must have as many fields as the header.
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errors.New("missing header row")}
		}
		return nil, wrapParseErr(err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	events := make([]model.Event, 0)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapParseErr(err)
		}
		events = append(events, recordFrom(fields, index))
	}

	metric.CSVRows("import", len(events))
	return events, nil
}

// columnIndex maps known column names to their position. A header that
// names none of the known columns is treated as missing: the first row is
// most likely data.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(Header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, known := range Header {
			if name == known {
				if _, dup := index[known]; dup {
					return nil, fmt.Errorf("duplicate column %q", known)
				}
				index[known] = i
			}
		}
	}
	if len(index) == 0 {
		return nil, errors.New("missing header row: no known column names")
	}
	return index, nil
}

func recordFrom(fields []string, index map[string]int) model.Event {
	get := func(col string) string {
		if i, ok := index[col]; ok && i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return model.Event{
		ID:         model.NewID(),
		Date:       get(ColDate),
		DayName:    get(ColDayName),
		StartTime:  get(ColStartTime),
		EndTime:    get(ColEndTime),
		EventName:  get(ColEventName),
		Format:     get(ColFormat),
		Platform:   get(ColPlatform),
		FocusNotes: get(ColFocusNotes),
		Completed:  ParseBool(get(ColCompleted)),
	}
}

func wrapParseErr(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}
