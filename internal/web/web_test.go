package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"eventcal/internal/config"
	"eventcal/internal/dashboard"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/store"
	"eventcal/internal/store/jsonfile"
)

func init() {
	appLog.SetOutput(io.Discard)
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.New(jsonfile.New(filepath.Join(t.TempDir(), "events_data.json")))
	if _, err := st.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	s := NewServer(cfg, st)
	// Thursday.
	s.now = func() time.Time { return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) }
	return s, st
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	s, st := newTestServer(t)
	h := s.Handler()

	seed := st.Records()
	if _, err := st.SetCompleted(seed[7].ID, true); err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/api/events", "")
	if got := decode[eventsResponse](t, rec); got.Count != 8 {
		t.Errorf("expected 8 events, got %d", got.Count)
	}

	rec = do(t, h, http.MethodGet, "/api/events?status=completed", "")
	got := decode[eventsResponse](t, rec)
	if got.Count != 1 || got.Events[0].ID != seed[7].ID {
		t.Errorf("unexpected completed list %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/events?platform=YouTube&status=pending", "")
	if got := decode[eventsResponse](t, rec); got.Count != 0 {
		t.Errorf("expected no pending YouTube events, got %d", got.Count)
	}

	rec = do(t, h, http.MethodGet, "/api/events?status=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad status, got %d", rec.Code)
	}
}

func TestCreateUpdateCompleteDelete(t *testing.T) {
	s, st := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events", `{"Date":"tomorrow","Event Name":"Webinar","Platform":"Zoom"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[model.Event](t, rec)
	if created.ID == "" || created.Date != "2026-01-02" || created.DayName != "Friday" {
		t.Errorf("unexpected created event %+v", created)
	}
	if len(st.Records()) != 9 {
		t.Errorf("expected 9 records, got %d", len(st.Records()))
	}

	rec = do(t, h, http.MethodPut, "/api/events/"+created.ID, `{"Date":"2026-01-09","Day Name":"Friday","Event Name":"Webinar II"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[model.Event](t, rec); got.EventName != "Webinar II" || got.Platform != "" {
		t.Errorf("update should replace all fields: %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/api/events/"+created.ID+"/completed", `{"completed":true}`)
	if got := decode[model.Event](t, rec); !got.Completed || got.EventName != "Webinar II" {
		t.Errorf("unexpected completed event %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/events/"+created.ID, "")
	if got := decode[model.Event](t, rec); !got.Completed {
		t.Errorf("get after complete: %+v", got)
	}

	rec = do(t, h, http.MethodDelete, "/api/events/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/api/events/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for deleted id, got %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["error"] == "" {
		t.Error("error body missing")
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/events", `{"Date":`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad JSON, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/api/events/x/completed", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing flag, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/events", `{"Date":"2026-01-01","Event Name":"Webinar","repeat":"FREQ=NEVER"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad rule, got %d", rec.Code)
	}
	for _, body := range []string{
		`{}`,
		`{"Event Name":"Webinar"}`,
		`{"Date":"2026-01-08","Event Name":"  "}`,
		`{"Event Name":"Futuristic Fridays","repeat":"FREQ=WEEKLY;COUNT=3"}`,
	} {
		rec := do(t, h, http.MethodPost, "/api/events", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
		if got := decode[map[string]string](t, rec)["error"]; got != model.ErrMissingFields.Error() {
			t.Errorf("%s: unexpected error %q", body, got)
		}
	}
	if n := len(s.store.Records()); n != 8 {
		t.Errorf("rejected creates changed the collection: %d records", n)
	}
}

func TestCreateSeries(t *testing.T) {
	s, st := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/api/events", `{"Date":"2026-01-02","Event Name":"Futuristic Fridays","repeat":"FREQ=WEEKLY;COUNT=3"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create series: %d %s", rec.Code, rec.Body.String())
	}
	got := decode[seriesResponse](t, rec)
	if len(got.Events) != 3 || got.Events[2].Date != "2026-01-16" || got.Events[2].DayName != "Friday" {
		t.Errorf("unexpected series %+v", got)
	}
	if len(st.Records()) != 11 {
		t.Errorf("expected 11 records, got %d", len(st.Records()))
	}
}

func TestStatsOptionsAnalytics(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	stats := decode[dashboard.Stats](t, do(t, h, http.MethodGet, "/api/stats", ""))
	if stats.Total != 8 || stats.Pending != 8 || stats.Rate != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}

	opts := decode[optionsResponse](t, do(t, h, http.MethodGet, "/api/options", ""))
	if len(opts.EventNames) != 8 || opts.EventNames[0] != "AI Superheroes Class" {
		t.Errorf("unexpected options %+v", opts)
	}

	rep := decode[dashboard.Report](t, do(t, h, http.MethodGet, "/api/analytics", ""))
	if len(rep.ByEvent) != 8 || len(rep.ByPlatform) != 8 {
		t.Errorf("unexpected analytics %+v", rep)
	}
}

func TestExportAndImportCSV(t *testing.T) {
	s, st := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/export.csv", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	exported := rec.Body.String()
	if !strings.HasPrefix(exported, "Date,Day Name,") || strings.Count(exported, "\n") != 9 {
		t.Errorf("unexpected export %q", exported)
	}

	rec = do(t, h, http.MethodPost, "/api/import?mode=append", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("append import: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[importResponse](t, rec); got.Imported != 8 || got.Total != 16 {
		t.Errorf("unexpected import result %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/import", "Date,Event Name\n2026-02-01,Only One\n")
	if got := decode[importResponse](t, rec); got.Mode != importReplace || got.Total != 1 {
		t.Errorf("unexpected replace result %+v", got)
	}
	if records := st.Records(); len(records) != 1 || records[0].EventName != "Only One" {
		t.Errorf("collection not replaced: %+v", records)
	}

	before := st.Records()
	rec = do(t, h, http.MethodPost, "/api/import", "Date,Event Name\n2026-02-01\n")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for ragged csv, got %d", rec.Code)
	}
	if len(st.Records()) != len(before) {
		t.Error("failed import changed the collection")
	}

	if rec := do(t, h, http.MethodPost, "/api/import?mode=merge", exported); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad mode, got %d", rec.Code)
	}
}

func TestExportJSONAndCalendar(t *testing.T) {
	s, st := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/export.json", "")
	var events []model.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("export.json: %v", err)
	}
	if len(events) != len(st.Records()) {
		t.Errorf("expected %d events, got %d", len(st.Records()), len(events))
	}
	if !strings.Contains(rec.Body.String(), "Sales skills & strategy") {
		t.Error("export.json escaped &")
	}
	if rec = do(t, h, http.MethodGet, "/api/events", ""); !strings.Contains(rec.Body.String(), "Sales skills & strategy") {
		t.Error("event list escaped &")
	}

	rec = do(t, h, http.MethodGet, "/calendar.ics", "")
	body := rec.Body.String()
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if strings.Count(body, "BEGIN:VEVENT") != 8 {
		t.Errorf("expected 8 VEVENTs, got %d", strings.Count(body, "BEGIN:VEVENT"))
	}

	rec = do(t, h, http.MethodPost, "/api/import?format=ics&mode=append", body)
	if got := decode[importResponse](t, rec); got.Imported != 8 {
		t.Errorf("ics import: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "eventcal_events") {
		t.Errorf("metrics not exposed: %d", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health must stay open, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/stats", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with credentials, got %d", rec.Code)
	}
}

// brokenBackend loads fine but never saves.
type brokenBackend struct{}

func (brokenBackend) Load() ([]model.Event, error) { return store.Seed(), nil }
func (brokenBackend) Save([]model.Event) error     { return errors.New("read-only filesystem") }

func TestWriteFailureIs500(t *testing.T) {
	st := store.New(brokenBackend{})
	if _, err := st.Load(); err != nil {
		t.Fatal(err)
	}
	s := NewServer(config.DefaultConfig(), st)

	rec := do(t, s.Handler(), http.MethodPost, "/api/events", `{"Date":"2026-01-08","Event Name":"Lost"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if len(st.Records()) != 8 {
		t.Error("failed write changed the collection")
	}
}
