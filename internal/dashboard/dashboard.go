// Package dashboard computes the summaries shown on the dashboard: headline
// counts, list filters, filter options and per-category analytics.
//
// Everything here is a pure function of the record slice; callers pass a
// snapshot from the store.
package dashboard

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"eventcal/internal/model"
)

// Status filter values.
const (
	StatusAll       = "all"
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

// All is the option label meaning "no filter" for name and platform.
const All = "All"

// Stats are the headline numbers. Rate is a percentage in [0, 100].
type Stats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Pending   int     `json:"pending"`
	Rate      float64 `json:"completion_rate"`
}

// ComputeStats counts records by completion state.
func ComputeStats(records []model.Event) Stats {
	var s Stats
	s.Total = len(records)
	for _, ev := range records {
		if ev.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.Rate = round1(float64(s.Completed) / float64(s.Total) * 100)
	}
	return s
}

// Filter narrows the event list. Empty fields and "All" match everything.
type Filter struct {
	Status    string
	EventName string
	Platform  string
}

// Apply returns the records matching f in their original order.
func (f Filter) Apply(records []model.Event) []model.Event {
	status := strings.ToLower(strings.TrimSpace(f.Status))
	out := make([]model.Event, 0, len(records))
	for _, ev := range records {
		switch status {
		case StatusCompleted:
			if !ev.Completed {
				continue
			}
		case StatusPending:
			if ev.Completed {
				continue
			}
		}
		if !matches(f.EventName, ev.EventName) || !matches(f.Platform, ev.Platform) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func matches(want, got string) bool {
	return want == "" || want == All || want == got
}

// Options lists the distinct event names and platforms, collated for
// display.
func Options(records []model.Event) (eventNames, platforms []string) {
	names := make(map[string]struct{})
	plats := make(map[string]struct{})
	for _, ev := range records {
		names[ev.EventName] = struct{}{}
		plats[ev.Platform] = struct{}{}
	}
	return collated(names), collated(plats)
}

func collated(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	c := collate.New(language.English, collate.IgnoreCase)
	// Ties under case folding still need a fixed order.
	sort.SliceStable(out, func(i, j int) bool {
		if r := c.CompareString(out[i], out[j]); r != 0 {
			return r < 0
		}
		return out[i] < out[j]
	})
	return out
}

// SortByDate returns a copy of records ordered by the Date string. Records
// with equal dates keep their stored order.
func SortByDate(records []model.Event) []model.Event {
	out := model.Clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// EventStat is the completion summary of one event name.
type EventStat struct {
	EventName string  `json:"event_name"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Rate      float64 `json:"completion_rate"`
}

// Count is one bar of a distribution.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Report groups the analytics views.
type Report struct {
	ByEvent    []EventStat `json:"by_event"`
	ByPlatform []Count     `json:"by_platform"`
	ByFormat   []Count     `json:"by_format"`
}

// Analytics builds the per-event completion table and the platform and
// format distributions. The event table is ordered by name; distributions by
// descending count, then name.
func Analytics(records []model.Event) Report {
	byEvent := make(map[string]*EventStat)
	platforms := make(map[string]int)
	formats := make(map[string]int)

	for _, ev := range records {
		st, ok := byEvent[ev.EventName]
		if !ok {
			st = &EventStat{EventName: ev.EventName}
			byEvent[ev.EventName] = st
		}
		st.Total++
		if ev.Completed {
			st.Completed++
		}
		platforms[ev.Platform]++
		formats[ev.Format]++
	}

	rep := Report{
		ByEvent:    make([]EventStat, 0, len(byEvent)),
		ByPlatform: counts(platforms),
		ByFormat:   counts(formats),
	}
	for _, st := range byEvent {
		st.Rate = round1(float64(st.Completed) / float64(st.Total) * 100)
		rep.ByEvent = append(rep.ByEvent, *st)
	}
	sort.Slice(rep.ByEvent, func(i, j int) bool {
		return rep.ByEvent[i].EventName < rep.ByEvent[j].EventName
	})
	return rep
}

func counts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for v, n := range m {
		out = append(out, Count{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
