package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/MrWong99/solace/internal/observe"
	"github.com/MrWong99/solace/internal/speech"
	"github.com/MrWong99/solace/internal/voice"
)

type voicesResponse struct {
	Default string            `json:"default"`
	Voices  []voice.Identity  `json:"voices"`
	Moods   map[string]string `json:"moods"`
}

// handleVoices handles GET /v1/voices[?gender=female|male].
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	t := s.pipeline.Tables()

	voices := t.Catalog.All()
	if g := r.URL.Query().Get("gender"); g != "" {
		gender := voice.Gender(strings.ToLower(g))
		if !gender.IsValid() {
			writeError(w, http.StatusBadRequest, "gender must be male or female")
			return
		}
		voices = t.Catalog.ByGender(gender)
	}

	writeJSON(w, http.StatusOK, voicesResponse{
		Default: t.Catalog.Default().Name,
		Voices:  voices,
		Moods:   t.Selector.Moods(),
	})
}

// handleResolve handles POST /v1/voice/resolve.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req speech.Request
	if !decode(w, r, &req) {
		return
	}
	res, err := s.pipeline.Resolve(r.Context(), req)
	if err != nil {
		fail(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// speakRequest is a [speech.Request] plus the reply text to voice. Message
// is what gets classified; Text is what gets spoken.
type speakRequest struct {
	speech.Request
	Text string `json:"text"`
}

// handleSpeech handles POST /v1/speech. The audio is written as it arrives;
// once the first byte is out, failures can only cut the stream short.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, err := s.pipeline.Resolve(r.Context(), req.Request)
	if err != nil {
		fail(w, r, err, http.StatusInternalServerError)
		return
	}
	audio, err := s.pipeline.Speak(r.Context(), req.Text, res)
	if err != nil {
		fail(w, r, err, http.StatusBadGateway)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("X-Solace-Voice", res.Voice.Name)
	h.Set("X-Solace-Context", res.Context.String())
	if s.audioFormat != "" {
		h.Set("X-Audio-Format", s.audioFormat)
	}
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	for chunk := range audio {
		if _, err := w.Write(chunk); err != nil {
			// Client went away; the request context cancels the stream.
			observe.Logger(r.Context()).Debug("speech client disconnected", "err", err)
			break
		}
		_ = rc.Flush()
	}
	for range audio {
	}
}

// streamEvent is a text frame on the speech WebSocket.
type streamEvent struct {
	Type       string             `json:"type"`
	Resolution *speech.Resolution `json:"resolution,omitempty"`
	Bytes      int                `json:"bytes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// handleSpeechStream handles GET /v1/speech/stream. Each text frame from the
// client is a speakRequest; the server answers with binary audio frames
// followed by a "done" event, or a single "error" event. Requests are served
// one at a time in arrival order.
func (s *Server) handleSpeechStream(w http.ResponseWriter, r *http.Request) {
	if !s.pipeline.HasTTS() {
		fail(w, r, speech.ErrNoTTS, http.StatusServiceUnavailable)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		// Accept has already written the response.
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	log := observe.Logger(ctx)
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
				websocket.CloseStatus(err) != websocket.StatusGoingAway {
				log.Debug("speech stream closed", "err", err)
			}
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "expected JSON text frames")
			return
		}

		var req speakRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := sendEvent(ctx, conn, streamEvent{Type: "error", Error: "invalid request: " + err.Error()}); err != nil {
				return
			}
			continue
		}
		if err := s.streamOne(ctx, conn, req); err != nil {
			log.Debug("speech stream write failed", "err", err)
			return
		}
	}
}

// streamOne voices a single request on conn. Only connection errors are
// returned; request errors are reported to the client as an error event.
func (s *Server) streamOne(ctx context.Context, conn *websocket.Conn, req speakRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res, err := s.pipeline.Resolve(ctx, req.Request)
	if err == nil {
		var audio <-chan []byte
		audio, err = s.pipeline.Speak(ctx, req.Text, res)
		if err == nil {
			n := 0
			for chunk := range audio {
				if err := conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
					return err
				}
				n += len(chunk)
			}
			return sendEvent(ctx, conn, streamEvent{Type: "done", Resolution: &res, Bytes: n})
		}
	}

	msg := err.Error()
	if statusFor(err, http.StatusBadGateway) >= http.StatusInternalServerError {
		observe.Logger(ctx).Error("speech stream request failed", "err", err)
		msg = "speech unavailable"
	}
	return sendEvent(ctx, conn, streamEvent{Type: "error", Error: msg})
}

func sendEvent(ctx context.Context, conn *websocket.Conn, ev streamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
