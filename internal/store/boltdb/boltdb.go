// Package boltdb keeps the event collection inside a bbolt database, as an
// alternative to the plain JSON file.
package boltdb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"eventcal/internal/model"
	"eventcal/internal/store"
)

const (
	rootBucket    = "eventcal"
	collectionKey = "events"
	DefaultFile   = "events.bdb"
)

// Config describes where the database lives.
type Config struct {
	Path string
	// Timeout bounds how long Open waits for the file lock held by another
	// process. Zero means one second.
	Timeout time.Duration
}

// Repo is a store.Backend over a bbolt file.
type Repo struct {
	path    string
	root    []byte
	timeout time.Duration
}

var _ store.Backend = (*Repo)(nil)

// New returns a Repo over the bbolt file at c.Path. The database is
// opened for the duration of a single Load or Save only.
func New(c Config) *Repo {
	r := Repo{
		path:    c.Path,
		root:    []byte(rootBucket),
		timeout: c.Timeout,
	}
	if r.timeout <= 0 {
		r.timeout = time.Second
	}
	return &r
}

func (r *Repo) Path() string { return r.path }

func (r *Repo) open() (*bolt.DB, error) {
	db, err := bolt.Open(r.path, 0o600, &bolt.Options{Timeout: r.timeout})
	if err != nil {
		return nil, fmt.Errorf("could not open db %s: %w", r.path, err)
	}
	return db, nil
}

// Load reads the collection. A missing database file is an empty collection.
func (r *Repo) Load() ([]model.Event, error) {
	if _, err := os.Stat(r.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Event{}, nil
		}
		return nil, &store.IOError{Op: "read", Path: r.path, Err: err}
	}

	db, err := r.open()
	if err != nil {
		return nil, &store.IOError{Op: "read", Path: r.path, Err: err}
	}
	defer db.Close()

	var raw []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.root)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(collectionKey)); v != nil {
			// v is only valid inside the transaction.
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, &store.IOError{Op: "read", Path: r.path, Err: err}
	}
	if raw == nil {
		return []model.Event{}, nil
	}
	return store.Decode(r.path, raw)
}

// Save replaces the stored collection in one bbolt transaction.
func (r *Repo) Save(events []model.Event) error {
	data, err := store.Encode(events)
	if err != nil {
		return err
	}

	db, err := r.open()
	if err != nil {
		return &store.IOError{Op: "write", Path: r.path, Err: err}
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(r.root)
		if err != nil {
			return fmt.Errorf("unable to create root bucket %s: %w", r.root, err)
		}
		if err := b.Put([]byte(collectionKey), data); err != nil {
			return fmt.Errorf("could not store encoded events: %w", err)
		}
		return nil
	})
	if err != nil {
		return &store.IOError{Op: "write", Path: r.path, Err: err}
	}
	return nil
}
