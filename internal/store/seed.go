package store

import "eventcal/internal/model"

var seedFields = []model.Fields{
	{Date: "2026-01-01", DayName: "Thursday", StartTime: "9:00 AM", EndTime: "10:00 AM", EventName: "Sales Team Training", Format: "Live Training", Platform: "Zoom / Internal", FocusNotes: "Sales skills & strategy"},
	{Date: "2026-01-02", DayName: "Friday", StartTime: "12:00 PM", EventName: "Futuristic Fridays", Format: "Live Stream", Platform: "Social Platforms", FocusNotes: "Future tech, AI trends"},
	{Date: "2026-01-03", DayName: "Saturday", StartTime: "Flexible", EventName: "System Saturdays", Format: "Short Video Tip", Platform: "All Social Platforms", FocusNotes: "Systems & automation"},
	{Date: "2026-01-04", DayName: "Sunday", StartTime: "6:00 AM", EventName: "AIVACEO Podcast", Format: "Audio / Recorded", Platform: "Podcast Platforms", FocusNotes: "Weekly AI discussion & insights"},
	{Date: "2026-01-04", DayName: "Sunday", StartTime: "2:00 PM", EventName: "Promptology Tip", Format: "Video", Platform: "Social Media", FocusNotes: "Quick AI prompt education"},
	{Date: "2026-01-05", DayName: "Monday", StartTime: "9:00 AM", EndTime: "11:00 AM", EventName: "Real Estate & AI", Format: "Live Audio", Platform: "Clubhouse", FocusNotes: "AI applications in real estate"},
	{Date: "2026-01-06", DayName: "Tuesday", StartTime: "6:00 PM", EndTime: "8:00 PM", EventName: "AI Superheroes Class", Format: "Live Class", Platform: "Community Platform", FocusNotes: "Hands-on AI training"},
	{Date: "2026-01-07", DayName: "Wednesday", StartTime: "Flexible", EventName: "AI Whiteboard Wednesday", Format: "Educational Video", Platform: "YouTube", FocusNotes: "Visual AI breakdowns & tutorials"},
}

// Seed returns the eight example records written on first run. The content,
// IDs included, is the same on every call.
func Seed() []model.Event {
	out := make([]model.Event, len(seedFields))
	for i, f := range seedFields {
		out[i] = f.Event(model.SeedID(i))
	}
	return out
}
