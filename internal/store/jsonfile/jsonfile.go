// Package jsonfile keeps the event collection in a single JSON file.
package jsonfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"eventcal/internal/model"
	"eventcal/internal/store"
)

// File is a store.Backend over one JSON file on disk.
type File struct {
	path string
}

// New returns a backend for the JSON file at path. The file does not need
// to exist yet.
func New(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

// Load reads and parses the whole file. A missing file is an empty
// collection.
func (f *File) Load() ([]model.Event, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Event{}, nil
		}
		return nil, &store.IOError{Op: "read", Path: f.path, Err: err}
	}
	return store.Decode(f.path, data)
}

// Save overwrites the file with events.
//
// Implementation details:
//   - Ensures the parent directory exists.
//   - Writes to a temp file in the same directory, syncs and closes it.
//   - Renames the temp file over the target, so readers see either the old
//     or the new content, never a truncated file.
func (f *File) Save(events []model.Event) error {
	data, err := store.Encode(events)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return f.writeErr(err)
	}

	tmp, err := os.CreateTemp(dir, ".eventcal-*.tmp")
	if err != nil {
		return f.writeErr(err)
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error; harmless after a successful rename.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return f.writeErr(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return f.writeErr(err)
	}
	if err := tmp.Close(); err != nil {
		return f.writeErr(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return f.writeErr(err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return f.writeErr(err)
	}
	return nil
}

func (f *File) writeErr(err error) error {
	return &store.IOError{Op: "write", Path: f.path, Err: err}
}
