package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"eventcal/internal/model"
)

// Decode parses the serialized collection held by a backend. Anything other
// than a JSON array of objects yields a *MalformedStoreError naming path.
func Decode(path string, data []byte) ([]model.Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &MalformedStoreError{Path: path, Err: errors.New("empty file")}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &MalformedStoreError{Path: path, Err: err}
	}
	if raw == nil {
		// "null" decodes without error but is not an array.
		return nil, &MalformedStoreError{Path: path, Err: errors.New("top-level value is not an array")}
	}

	events := make([]model.Event, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, &MalformedStoreError{Path: path, Err: fmt.Errorf("element %d is not an object", i)}
		}
		ev, err := decodeEvent(item)
		if err != nil {
			return nil, &MalformedStoreError{Path: path, Err: fmt.Errorf("element %d: %w", i, err)}
		}
		events = append(events, ev)
	}
	return events, nil
}

// decodeEvent reads one record without enforcing field types: a number or
// boolean in a text field keeps its JSON text, null reads as empty, and
// Completed accepts booleans, "TRUE"/"FALSE" strings and numbers.
func decodeEvent(item []byte) (model.Event, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(item, &raw); err != nil {
		return model.Event{}, err
	}
	text := func(key string) string {
		v := bytes.TrimSpace(raw[key])
		if len(v) == 0 || string(v) == "null" {
			return ""
		}
		var s string
		if v[0] == '"' && json.Unmarshal(v, &s) == nil {
			return s
		}
		return string(v)
	}
	return model.Event{
		ID:         text("id"),
		Date:       text("Date"),
		DayName:    text("Day Name"),
		StartTime:  text("Start Time"),
		EndTime:    text("End Time"),
		EventName:  text("Event Name"),
		Format:     text("Format"),
		Platform:   text("Platform"),
		FocusNotes: text("Focus / Notes"),
		Completed:  truthy(text("Completed")),
	}, nil
}

func truthy(v string) bool {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "true") {
		return true
	}
	n, err := strconv.ParseFloat(v, 64)
	return err == nil && n != 0
}

// Encode serializes the collection as a 2-space indented JSON array with
// characters such as & written as-is. A nil collection is written as []
// rather than null.
func Encode(events []model.Event) ([]byte, error) {
	if events == nil {
		events = []model.Event{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return nil, fmt.Errorf("failed to marshal events: %w", err)
	}
	return buf.Bytes(), nil
}
