package web

import (
	"net/http"
	"strings"

	"eventcal/internal/dashboard"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/natural"
)

// eventsResponse is the JSON response shape for GET /api/events.
type eventsResponse struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
}

// createRequest is the body of POST /api/events. Repeat is an optional
// RRULE ("FREQ=WEEKLY;COUNT=4") turning the event into a series.
type createRequest struct {
	model.Fields
	Repeat string `json:"repeat,omitempty"`
}

// seriesResponse is returned when a create request carried a repeat rule.
type seriesResponse struct {
	Events    []model.Event `json:"events"`
	Truncated bool          `json:"truncated"`
}

type completedRequest struct {
	Completed *bool `json:"completed"`
}

// handleListEvents returns the filtered event list.
//
// GET /api/events?status=&event=&platform=&sort=date
//   - status:   all | completed | pending
//   - event:    exact event name, "All" or empty for any
//   - platform: exact platform, "All" or empty for any
//   - sort:     "date" orders by Date; otherwise stored order
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := dashboard.Filter{
		Status:    q.Get("status"),
		EventName: q.Get("event"),
		Platform:  q.Get("platform"),
	}
	switch strings.ToLower(f.Status) {
	case "", dashboard.StatusAll, dashboard.StatusCompleted, dashboard.StatusPending:
	default:
		writeError(w, http.StatusBadRequest, "status must be all, completed or pending")
		return
	}

	events := f.Apply(s.store.Records())
	if q.Get("sort") == "date" {
		events = dashboard.SortByDate(events)
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Count: len(events)})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Fields.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := s.fillDate(req.Fields)

	if strings.TrimSpace(req.Repeat) == "" {
		ev, err := s.store.Create(f)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		appLog.Info("event created", "id", ev.ID, "event_name", ev.EventName)
		writeJSON(w, http.StatusCreated, ev)
		return
	}

	res, err := ics.ExpandSeries(f.Event(""), req.Repeat, ics.ExpandConfig{Location: s.cfg.Location()})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.AppendAll(res.Events); err != nil {
		writeStoreError(w, err)
		return
	}
	appLog.Info("event series created", "count", len(res.Events), "rule", req.Repeat, "truncated", res.Truncated)
	writeJSON(w, http.StatusCreated, seriesResponse{Events: res.Events, Truncated: res.Truncated})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var f model.Fields
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	ev, err := s.store.Update(r.PathValue("id"), f)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleSetCompleted(w http.ResponseWriter, r *http.Request) {
	var req completedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Completed == nil {
		writeError(w, http.StatusBadRequest, `missing "completed"`)
		return
	}
	ev, err := s.store.SetCompleted(r.PathValue("id"), *req.Completed)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.Delete(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	appLog.Info("event deleted", "id", ev.ID)
	writeJSON(w, http.StatusOK, ev)
}

// fillDate resolves a natural-language Date ("next friday") and fills in the
// weekday when the client left Day Name empty. Text that does not read as a
// date is stored as given.
func (s *Server) fillDate(f model.Fields) model.Fields {
	if f.DayName != "" || strings.TrimSpace(f.Date) == "" {
		return f
	}
	date, day, err := natural.Resolve(f.Date, s.now().In(s.cfg.Location()))
	if err != nil {
		appLog.Debug("date left as given", "date", f.Date, "reason", err.Error())
		return f
	}
	f.Date = date
	f.DayName = day
	return f
}
