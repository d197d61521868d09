// Package api serves Solace's HTTP interface:
//
//	GET  /v1/voices                    catalog and mood table
//	POST /v1/voice/resolve             context, voice and parameters for a message
//	POST /v1/speech                    resolve and stream synthesized audio
//	GET  /v1/speech/stream             WebSocket variant of /v1/speech
//	POST /v1/crisis/presentation       gate a supplied analysis
//	POST /v1/crisis/assess             analyze, gate and schedule a check-in
//	GET  /v1/checkins/due              pending check-ins past due
//	POST /v1/checkins/{id}/complete    mark a check-in done
//
// plus the health probes and the Prometheus scrape endpoint when configured.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/MrWong99/solace/internal/checkin"
	"github.com/MrWong99/solace/internal/crisis"
	"github.com/MrWong99/solace/internal/health"
	"github.com/MrWong99/solace/internal/observe"
	"github.com/MrWong99/solace/internal/resilience"
	"github.com/MrWong99/solace/internal/speech"
	"github.com/MrWong99/solace/internal/voice"
)

// maxBodyBytes caps JSON request bodies and WebSocket messages.
const maxBodyBytes = 64 << 10

// Server holds the components behind the HTTP routes. The crisis components
// and the check-in scheduler can be replaced at runtime on config reload.
type Server struct {
	pipeline *speech.Pipeline

	analyzer  atomic.Pointer[analyzerRef]
	gate      atomic.Pointer[crisis.Gate]
	scheduler atomic.Pointer[checkin.Scheduler]

	health         *health.Handler
	metricsHandler http.Handler
	metrics        *observe.Metrics

	audioFormat    string
	originPatterns []string
}

// analyzerRef lets an interface value live in an atomic.Pointer.
type analyzerRef struct{ crisis.Analyzer }

// Option configures a [Server].
type Option func(*Server)

// WithAnalyzer enables POST /v1/crisis/assess.
func WithAnalyzer(a crisis.Analyzer) Option {
	return func(s *Server) { s.SetAnalyzer(a) }
}

// WithGate sets the crisis gate. The default is [crisis.NewGate] without
// options.
func WithGate(g *crisis.Gate) Option {
	return func(s *Server) {
		if g != nil {
			s.gate.Store(g)
		}
	}
}

// WithScheduler enables check-in scheduling and the check-in routes.
func WithScheduler(sch *checkin.Scheduler) Option {
	return func(s *Server) { s.scheduler.Store(sch) }
}

// WithHealth mounts the health probes.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithMetrics sets the metrics sink. The default is [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithAudioFormat is reported in the X-Audio-Format header of speech
// responses, e.g. "pcm_16000".
func WithAudioFormat(format string) Option {
	return func(s *Server) { s.audioFormat = format }
}

// WithOriginPatterns lists the cross-origin hosts allowed to open the speech
// WebSocket. Same-origin requests are always allowed.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

// New creates a [Server] around p.
func New(p *speech.Pipeline, opts ...Option) *Server {
	s := &Server{pipeline: p, metrics: observe.DefaultMetrics()}
	s.gate.Store(crisis.NewGate())
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetAnalyzer replaces the crisis analyzer for subsequent requests. A nil a
// disables POST /v1/crisis/assess.
func (s *Server) SetAnalyzer(a crisis.Analyzer) {
	if a == nil {
		s.analyzer.Store(nil)
		return
	}
	s.analyzer.Store(&analyzerRef{a})
}

// SetGate replaces the crisis gate for subsequent requests.
func (s *Server) SetGate(g *crisis.Gate) {
	s.gate.Store(g)
}

// SetScheduler replaces the check-in scheduler for subsequent requests.
func (s *Server) SetScheduler(sch *checkin.Scheduler) {
	s.scheduler.Store(sch)
}

// Handler returns the routes wrapped in [observe.Middleware].
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/voices", s.handleVoices)
	mux.HandleFunc("POST /v1/voice/resolve", s.handleResolve)
	mux.HandleFunc("POST /v1/speech", s.handleSpeech)
	mux.HandleFunc("GET /v1/speech/stream", s.handleSpeechStream)
	mux.HandleFunc("POST /v1/crisis/presentation", s.handlePresentation)
	mux.HandleFunc("POST /v1/crisis/assess", s.handleAssess)
	mux.HandleFunc("GET /v1/checkins/due", s.handleDue)
	mux.HandleFunc("POST /v1/checkins/{id}/complete", s.handleComplete)
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	return observe.Middleware(s.metrics)(mux)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body of at most maxBodyBytes into v and rejects
// unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps a component error to an HTTP status. Errors it does not
// recognise get fallback.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, speech.ErrInvalidContext), errors.Is(err, speech.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, speech.ErrNoTTS):
		return http.StatusServiceUnavailable
	case errors.Is(err, voice.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, resilience.ErrAllFailed), errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusBadGateway
	}
	return fallback
}

// fail writes err with the status from [statusFor]. Server-side failures are
// logged and their details kept out of the response.
func fail(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusFor(err, fallback)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "status", status, "err", err)
		msg = http.StatusText(status)
	}
	writeError(w, status, msg)
}
