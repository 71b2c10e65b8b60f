package web

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"eventcal/internal/csvbridge"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/store"
)

const (
	importReplace = "replace"
	importAppend  = "append"
)

type importResponse struct {
	Mode     string `json:"mode"`
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	data, err := csvbridge.ToCSV(s.store.Records())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.csv"`)
	_, _ = w.Write(data)
}

// handleExportJSON returns the collection in the same layout as the backing
// file.
func (s *Server) handleExportJSON(w http.ResponseWriter, _ *http.Request) {
	data, err := store.Encode(s.store.Records())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events_data.json"`)
	_, _ = w.Write(data)
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	body := ics.ToICS(s.store.Records(), s.cfg.Location())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

// handleImport loads records from the request body.
//
// POST /api/import?mode=replace|append&format=csv|ics
//   - mode:   replace (default) swaps the whole collection; append adds to it
//   - format: csv (default) or ics
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := strings.ToLower(q.Get("mode"))
	if mode == "" {
		mode = importReplace
	}
	if mode != importReplace && mode != importAppend {
		writeError(w, http.StatusBadRequest, "mode must be replace or append")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}

	var events []model.Event
	switch strings.ToLower(q.Get("format")) {
	case "", "csv":
		events, err = csvbridge.ReadCSV(bytes.NewReader(body))
		if err != nil {
			writeStoreError(w, err)
			return
		}
	case "ics":
		events, err = ics.ParseICS(body, ics.ExpandConfig{Location: s.cfg.Location()})
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid calendar: "+err.Error())
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or ics")
		return
	}

	if mode == importAppend {
		err = s.store.AppendAll(events)
	} else {
		err = s.store.Replace(events)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	total := len(s.store.Records())
	appLog.Info("events imported", "mode", mode, "imported", len(events), "total", total)
	writeJSON(w, http.StatusOK, importResponse{Mode: mode, Imported: len(events), Total: total})
}
