package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation addresses an ID that is not in
// the collection.
var ErrNotFound = errors.New("event not found")

// MalformedStoreError reports a backing file that exists but does not hold a
// JSON array of objects. It is fatal at startup: the file is never repaired
// or overwritten automatically.
type MalformedStoreError struct {
	Path string
	Err  error
}

func (e *MalformedStoreError) Error() string {
	return fmt.Sprintf("malformed event store %s: %v", e.Path, e.Err)
}

func (e *MalformedStoreError) Unwrap() error { return e.Err }

// IOError reports a filesystem failure while reading or writing the backing
// file.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("event store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IndexOutOfRangeError reports a positional operation on an index outside
// [0, Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for %d events", e.Index, e.Len)
}
