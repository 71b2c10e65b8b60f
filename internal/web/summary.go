package web

import (
	"net/http"

	"eventcal/internal/dashboard"
)

type optionsResponse struct {
	EventNames []string `json:"event_names"`
	Platforms  []string `json:"platforms"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.ComputeStats(s.store.Records()))
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	names, platforms := dashboard.Options(s.store.Records())
	writeJSON(w, http.StatusOK, optionsResponse{EventNames: names, Platforms: platforms})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.Analytics(s.store.Records()))
}
