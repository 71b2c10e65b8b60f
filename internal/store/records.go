package store

import (
	"eventcal/internal/model"
)

// Append returns a new slice with ev added at the end. records is not
// modified.
func Append(records []model.Event, ev model.Event) []model.Event {
	out := make([]model.Event, len(records), len(records)+1)
	copy(out, records)
	return append(out, ev)
}

// UpdateAt returns a new slice in which the record at index i has all of its
// fields replaced by f. The record keeps its ID.
func UpdateAt(records []model.Event, i int, f model.Fields) ([]model.Event, error) {
	if i < 0 || i >= len(records) {
		return records, &IndexOutOfRangeError{Index: i, Len: len(records)}
	}
	out := model.Clone(records)
	out[i] = f.Event(records[i].ID)
	return out, nil
}

// DeleteAt returns a new slice without the record at index i. Records after
// i move down by one position.
func DeleteAt(records []model.Event, i int) ([]model.Event, error) {
	if i < 0 || i >= len(records) {
		return records, &IndexOutOfRangeError{Index: i, Len: len(records)}
	}
	out := make([]model.Event, 0, len(records)-1)
	out = append(out, records[:i]...)
	return append(out, records[i+1:]...), nil
}

// IndexOf resolves id to its current position, or -1.
func IndexOf(records []model.Event, id string) int {
	if id == "" {
		return -1
	}
	for i, ev := range records {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

// assignIDs gives every record without an ID, or with an ID already used by
// an earlier record, a fresh one. It reports whether anything changed.
func assignIDs(records []model.Event) bool {
	changed := false
	seen := make(map[string]bool, len(records))
	for i := range records {
		if records[i].ID == "" || seen[records[i].ID] {
			records[i].ID = model.NewID()
			changed = true
		}
		seen[records[i].ID] = true
	}
	return changed
}
