package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

const (
	productID = "-//eventcal//event calendar//EN"

	dateLayout = "2006-01-02"

	// propTimeText keeps a start time that is not a clock time ("Flexible")
	// so that an import can restore it.
	propTimeText = ical.ComponentProperty("X-EVENTCAL-TIME")
)

// clockLayouts are the start/end time spellings recognized as clock times.
var clockLayouts = []string{"3:04 PM", "3:04PM", "15:04"}

// ToICS renders records as an iCalendar feed. Records with a clock start time
// become timed events in loc; the rest become all-day events. Records whose
// Date cannot be parsed are skipped.
func ToICS(records []model.Event, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := time.Now().UTC()
	skipped := 0
	for _, rec := range records {
		day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(rec.Date), loc)
		if err != nil {
			skipped++
			appLog.Warn("ics export: skipping record with unparseable date", "id", rec.ID, "date", rec.Date)
			continue
		}

		ve := cal.AddEvent(rec.ID)
		ve.SetDtStampTime(stamp)
		ve.SetSummary(rec.EventName)
		if rec.Platform != "" {
			ve.SetLocation(rec.Platform)
		}
		if rec.FocusNotes != "" {
			ve.SetDescription(rec.FocusNotes)
		}
		if rec.Format != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, rec.Format)
		}
		if rec.Completed {
			ve.SetProperty(ical.ComponentPropertyStatus, string(ical.ObjectStatusCompleted))
		} else {
			ve.SetProperty(ical.ComponentPropertyStatus, string(ical.ObjectStatusConfirmed))
		}

		start, ok := atClock(day, rec.StartTime)
		if !ok {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
			if t := strings.TrimSpace(rec.StartTime); t != "" {
				ve.SetProperty(propTimeText, t)
			}
			continue
		}
		ve.SetStartAt(start)
		if end, ok := atClock(day, rec.EndTime); ok {
			if end.Before(start) {
				end = end.AddDate(0, 0, 1)
			}
			ve.SetEndAt(end)
		}
	}

	if skipped > 0 {
		appLog.Info("ics export completed with skipped records", "exported", len(records)-skipped, "skipped", skipped)
	}
	return cal.Serialize()
}

// atClock combines a calendar day with a clock time such as "9:00 AM".
func atClock(day time.Time, clock string) (time.Time, bool) {
	clock = strings.ToUpper(strings.TrimSpace(clock))
	if clock == "" {
		return time.Time{}, false
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
	}
	return time.Time{}, false
}

// formatClock renders t the way records spell clock times.
func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}
