package api

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/solace/internal/checkin"
	"github.com/MrWong99/solace/internal/crisis"
	"github.com/MrWong99/solace/internal/observe"
)

type presentationRequest struct {
	Analysis crisis.Analysis `json:"analysis"`
}

// handlePresentation handles POST /v1/crisis/presentation. It only runs the
// gate; nothing is stored.
func (s *Server) handlePresentation(w http.ResponseWriter, r *http.Request) {
	var req presentationRequest
	if !decode(w, r, &req) {
		return
	}
	p := s.gate.Load().Present(req.Analysis)
	s.metrics.RecordCrisisPresentation(r.Context(), string(p.Tier))
	writeJSON(w, http.StatusOK, p)
}

type assessRequest struct {
	// UserID identifies who a check-in is for. Anonymous assessments never
	// schedule one.
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message"`
}

type assessResponse struct {
	Analysis     crisis.Analysis     `json:"analysis"`
	Presentation crisis.Presentation `json:"presentation"`
	CheckIn      *checkin.Record     `json:"checkIn,omitempty"`
}

// handleAssess handles POST /v1/crisis/assess: analyze the message, gate the
// result, and store a check-in when the presentation offers one.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	ref := s.analyzer.Load()
	if ref == nil {
		writeError(w, http.StatusServiceUnavailable, "crisis analysis is not configured")
		return
	}
	var req assessRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	a, err := ref.Analyze(ctx, req.Message)
	if err != nil {
		fail(w, r, err, http.StatusBadGateway)
		return
	}
	p := s.gate.Load().Present(a)
	s.metrics.RecordCrisisPresentation(ctx, string(p.Tier))

	resp := assessResponse{Analysis: a, Presentation: p}
	if sch := s.scheduler.Load(); sch != nil {
		rec, ok, err := sch.MaybeSchedule(ctx, req.UserID, p)
		switch {
		case err != nil:
			// The presentation still goes out; the user must see it.
			observe.Logger(ctx).Error("check-in not stored", "user", req.UserID, "risk", p.RiskLevel, "err", err)
		case ok:
			resp.CheckIn = &rec
			s.metrics.CheckInsScheduled.Add(ctx, 1,
				metric.WithAttributes(attribute.String("risk_level", string(rec.RiskLevel))))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
