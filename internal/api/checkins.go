package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrWong99/solace/internal/checkin"
)

type dueResponse struct {
	Before   time.Time        `json:"before"`
	CheckIns []checkin.Record `json:"checkIns"`
}

// handleDue handles GET /v1/checkins/due[?before=RFC3339]. before defaults
// to now.
func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	sch := s.scheduler.Load()
	if sch == nil {
		writeError(w, http.StatusServiceUnavailable, "check-ins are not configured")
		return
	}

	before := time.Now().UTC()
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "before must be an RFC 3339 timestamp")
			return
		}
		before = t
	}

	due, err := sch.Store().Due(r.Context(), before)
	if err != nil {
		fail(w, r, err, http.StatusInternalServerError)
		return
	}
	if due == nil {
		due = []checkin.Record{}
	}
	writeJSON(w, http.StatusOK, dueResponse{Before: before, CheckIns: due})
}

// handleComplete handles POST /v1/checkins/{id}/complete.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	sch := s.scheduler.Load()
	if sch == nil {
		writeError(w, http.StatusServiceUnavailable, "check-ins are not configured")
		return
	}
	err := sch.Store().Complete(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, checkin.ErrNotFound):
		writeError(w, http.StatusNotFound, "check-in not found")
	case err != nil:
		fail(w, r, err, http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
