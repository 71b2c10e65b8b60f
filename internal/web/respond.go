package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"eventcal/internal/csvbridge"
	appLog "eventcal/internal/log"
	"eventcal/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeStoreError maps store and CSV failures to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	var (
		parseErr *csvbridge.ParseError
		ioErr    *store.IOError
		rangeErr *store.IndexOutOfRangeError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &rangeErr):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ioErr):
		appLog.Error("event store write failed", err)
		writeError(w, http.StatusInternalServerError, "failed to persist events")
	default:
		appLog.Error("request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a single JSON value from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

const maxBodyBytes = 8 << 20
