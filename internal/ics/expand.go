package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

const (
	defaultMaxOccurrences = 500
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// Location is the timezone dates and clock times are read and written
	// in. If nil, time.Local is used.
	Location *time.Location

	// MaxOccurrences is a safety cap to avoid infinite or extremely large
	// expansions. If zero, defaultMaxOccurrences is used.
	MaxOccurrences int
}

func (c ExpandConfig) normalized() ExpandConfig {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = defaultMaxOccurrences
	}
	return c
}

// SeriesResult is the outcome of expanding a template record.
type SeriesResult struct {
	Events []model.Event
	// Truncated is set when the rule had more occurrences than the cap.
	Truncated bool
}

// ExpandSeries repeats template according to an RRULE ("FREQ=WEEKLY;COUNT=4")
// starting at the template's Date. Each occurrence is a copy of the template
// with its own Date, Day Name and ID. Clock times are carried over as text.
func ExpandSeries(template model.Event, rule string, cfg ExpandConfig) (SeriesResult, error) {
	var result SeriesResult
	cfg = cfg.normalized()

	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(template.Date), cfg.Location)
	if err != nil {
		return result, fmt.Errorf("series start date %q: %w", template.Date, err)
	}

	r, err := rrule.StrToRRule(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if err != nil {
		return result, fmt.Errorf("invalid repeat rule %q: %w", rule, err)
	}
	r.DTStart(start)

	times, hitCap := take(r.Iterator(), cfg.MaxOccurrences)
	if len(times) == 0 {
		return result, errors.New("repeat rule yields no occurrences")
	}

	for _, t := range times {
		ev := template
		ev.ID = model.NewID()
		ev.Date = t.Format(dateLayout)
		ev.DayName = t.Weekday().String()
		result.Events = append(result.Events, ev)
	}
	if hitCap {
		result.Truncated = true
		appLog.Warn("expand: series truncated", "rule", rule, "cap", cfg.MaxOccurrences)
	}
	return result, nil
}

// take drains at most n values from next. The second result reports whether
// more values were left.
func take(next func() (time.Time, bool), n int) ([]time.Time, bool) {
	out := make([]time.Time, 0)
	for {
		t, ok := next()
		if !ok {
			return out, false
		}
		if len(out) == n {
			return out, true
		}
		out = append(out, t)
	}
}

// occurrence is one concrete instance of a parsed VEVENT.
type occurrence struct {
	ev    ParsedEvent
	Start time.Time
	End   time.Time
}

func (o occurrence) record(loc *time.Location) model.Event {
	start := o.Start.In(loc)
	rec := model.Event{
		ID:         model.NewID(),
		Date:       start.Format(dateLayout),
		DayName:    start.Weekday().String(),
		EventName:  o.ev.Summary,
		Format:     o.ev.Categories,
		Platform:   o.ev.Location,
		FocusNotes: o.ev.Description,
		Completed:  o.ev.Completed,
	}
	if o.ev.AllDay {
		// All-day instances are already anchored in loc.
		rec.Date = o.Start.Format(dateLayout)
		rec.DayName = o.Start.Weekday().String()
		rec.StartTime = o.ev.TimeText
		return rec
	}
	rec.StartTime = formatClock(start)
	if o.ev.HasEnd {
		rec.EndTime = formatClock(o.End.In(loc))
	}
	return rec
}

// expandParsed turns parsed VEVENTs into occurrences. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence, starting at DTSTART
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
func expandParsed(events []ParsedEvent, cfg ExpandConfig) []occurrence {
	// Group base events and overrides by UID.
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	order := make([]string, 0)

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]occurrence, 0, len(events))
	for _, uid := range order {
		ov := overridesByUID[uid]
		for _, ev := range baseByUID[uid] {
			if ev.RawRRule == "" {
				out = append(out, applyOverride(ev, ov, ev.Start, ev.End))
				continue
			}
			occ, hitCap := expandRecurring(ev, ov, cfg)
			if hitCap {
				appLog.Error("expand: truncated occurrences for UID due to cap",
					errors.New("max occurrences reached"),
					"uid", uid,
					"cap", cfg.MaxOccurrences,
				)
			}
			out = append(out, occ...)
		}
	}
	return out
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		// Keep the first instance rather than dropping the event.
		return []occurrence{applyOverride(ev, overrides, ev.Start, ev.End)}, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	times, hitCap := take(set.Iterator(), cfg.MaxOccurrences)

	dur := ev.End.Sub(ev.Start)
	out := make([]occurrence, 0, len(times))
	for _, occStart := range times {
		out = append(out, applyOverride(ev, overrides, occStart, occStart.Add(dur)))
	}
	return out, hitCap
}

// applyOverride returns the override whose RECURRENCE-ID matches start, or
// the base instance when there is none.
func applyOverride(base ParsedEvent, overrides []ParsedEvent, start, end time.Time) occurrence {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.Equal(start) {
			return occurrence{ev: ov, Start: ov.Start, End: ov.End}
		}
	}
	return occurrence{ev: base, Start: start, End: end}
}
