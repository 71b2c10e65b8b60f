package store

import (
	"errors"
	"sync"
	"time"

	appLog "eventcal/internal/log"
	"eventcal/internal/metric"
	"eventcal/internal/model"
)

// Backend persists the whole event collection as one unit.
//
//   - Load returns an empty collection (and no error) when nothing has been
//     stored yet.
//   - Save fully replaces previous content. It must either succeed or leave
//     the previous content intact.
type Backend interface {
	Load() ([]model.Event, error)
	Save(events []model.Event) error
}

// Store owns the authoritative event collection and is the only reader and
// writer of its Backend. Every mutation is persisted before it becomes
// visible through Records.
type Store struct {
	mu      sync.Mutex
	backend Backend
	events  []model.Event
}

// New constructs a Store over b. Call Open (or Load) before using it.
func New(b Backend) *Store {
	return &Store{backend: b}
}

// Load reads the collection from the backend and makes it the in-memory
// collection. Records without an ID, or with a duplicated one, are given a
// fresh ID and the collection is written back immediately. A failure to
// write it back is logged, not returned.
func (s *Store) Load() ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.backend.Load()
	metric.StoreOp("load", err)
	if err != nil {
		return nil, err
	}
	if assignIDs(events) {
		// Persist right away so ids stay stable across processes.
		if err := s.save(events); err != nil {
			appLog.Error("could not persist assigned event ids", err, "count", len(events))
		} else {
			appLog.Info("assigned ids to stored events without one", "count", len(events))
		}
	}
	s.events = events
	publish(events)
	return model.Clone(events), nil
}

// Save persists events as the new and only content of the backend and, on
// success, makes them the in-memory collection.
func (s *Store) Save(events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(model.Clone(events))
}

// Initialize persists the fixed seed collection and returns it.
func (s *Store) Initialize() ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed := Seed()
	if err := s.save(seed); err != nil {
		return nil, err
	}
	appLog.Info("event store seeded", "count", len(seed))
	return model.Clone(seed), nil
}

// Open loads the collection and seeds it when it is empty. It is meant to
// be called exactly once at startup.
func (s *Store) Open() ([]model.Event, error) {
	events, err := s.Load()
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		return events, nil
	}
	return s.Initialize()
}

// Records returns a copy of the in-memory collection in stored order.
func (s *Store) Records() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Clone(s.events)
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := IndexOf(s.events, id)
	if i < 0 {
		return model.Event{}, ErrNotFound
	}
	return s.events[i], nil
}

// Create appends a new record built from f and persists the collection.
func (s *Store) Create(f model.Fields) (model.Event, error) {
	ev := f.Event(model.NewID())
	err := s.mutate("create", func(events []model.Event) ([]model.Event, error) {
		return Append(events, ev), nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// Update replaces all fields of the record with the given id.
func (s *Store) Update(id string, f model.Fields) (model.Event, error) {
	var updated model.Event
	err := s.mutate("update", func(events []model.Event) ([]model.Event, error) {
		i := IndexOf(events, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		out, err := UpdateAt(events, i, f)
		if err != nil {
			return nil, err
		}
		updated = out[i]
		return out, nil
	})
	return updated, err
}

// SetCompleted flips only the Completed flag of the record with the given id.
func (s *Store) SetCompleted(id string, completed bool) (model.Event, error) {
	var updated model.Event
	err := s.mutate("complete", func(events []model.Event) ([]model.Event, error) {
		i := IndexOf(events, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		f := events[i].Fields()
		f.Completed = completed
		out, err := UpdateAt(events, i, f)
		if err != nil {
			return nil, err
		}
		updated = out[i]
		return out, nil
	})
	return updated, err
}

// Delete removes the record with the given id and returns it.
func (s *Store) Delete(id string) (model.Event, error) {
	var removed model.Event
	err := s.mutate("delete", func(events []model.Event) ([]model.Event, error) {
		i := IndexOf(events, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		removed = events[i]
		return DeleteAt(events, i)
	})
	return removed, err
}

// AppendAll adds events at the end of the collection, e.g. after a CSV
// import or a generated series.
func (s *Store) AppendAll(events []model.Event) error {
	return s.mutate("append", func(current []model.Event) ([]model.Event, error) {
		out := current
		for _, ev := range events {
			out = Append(out, ev.Normalized())
		}
		return out, nil
	})
}

// Replace swaps the whole collection for events.
func (s *Store) Replace(events []model.Event) error {
	return s.mutate("replace", func([]model.Event) ([]model.Event, error) {
		out := make([]model.Event, len(events))
		for i, ev := range events {
			out[i] = ev.Normalized()
		}
		return out, nil
	})
}

// mutate applies fn to a copy of the collection and persists the result.
// The in-memory collection only changes once the save succeeded, so a failed
// write leaves memory and disk agreeing on the previous state.
func (s *Store) mutate(op string, fn func([]model.Event) ([]model.Event, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(model.Clone(s.events))
	if err != nil {
		metric.StoreOp(op, err)
		return err
	}
	err = s.save(next)
	metric.StoreOp(op, err)
	if err != nil {
		appLog.Error("event store mutation not persisted", err, "op", op)
		return err
	}
	return nil
}

// save must be called with s.mu held.
func (s *Store) save(events []model.Event) error {
	assignIDs(events)

	start := time.Now()
	err := s.backend.Save(events)
	metric.SaveDuration(time.Since(start))
	metric.StoreOp("save", err)
	if err != nil {
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			err = &IOError{Op: "write", Err: err}
		}
		return err
	}

	s.events = events
	publish(events)
	appLog.Debug("event store saved", "count", len(events))
	return nil
}

func publish(events []model.Event) {
	completed := 0
	for _, ev := range events {
		if ev.Completed {
			completed++
		}
	}
	metric.Events(len(events), completed)
}
