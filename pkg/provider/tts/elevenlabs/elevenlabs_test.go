package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/solace/pkg/provider/tts"
)

// ---- WebSocket message construction ----

func TestBuildWSMessage_FlushCommand(t *testing.T) {
	t.Parallel()
	data, err := buildWSMessage("", nil)
	if err != nil {
		t.Fatalf("buildWSMessage: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal flush: %v", err)
	}
	if string(raw["text"]) != `""` {
		t.Errorf("expected empty string for text, got %s", raw["text"])
	}
	if _, exists := raw["voice_settings"]; exists {
		t.Error("flush message should not contain voice_settings")
	}
}

func TestToWireSettings(t *testing.T) {
	t.Parallel()

	got := toWireSettings(&tts.VoiceSettings{Stability: 0.9, SimilarityBoost: 0.75, Style: 0.05, UseSpeakerBoost: true})
	want := voiceSettings{Stability: 0.9, SimilarityBoost: 0.75, Style: 0.05, UseSpeakerBoost: true}
	if *got != want {
		t.Errorf("toWireSettings = %+v, want %+v", *got, want)
	}

	def := toWireSettings(nil)
	if *def != defaultSettings {
		t.Errorf("nil settings = %+v, want defaults", *def)
	}
	def.Stability = 0
	if defaultSettings.Stability == 0 {
		t.Error("toWireSettings(nil) aliases the package defaults")
	}
}

func TestStreamURL(t *testing.T) {
	t.Parallel()

	p, _ := New("key")
	u, err := p.streamURL("kcQkGnn0HAT2JRDQ4Ljp")
	if err != nil {
		t.Fatalf("streamURL: %v", err)
	}
	if !strings.HasPrefix(u, "wss://api.elevenlabs.io/v1/text-to-speech/kcQkGnn0HAT2JRDQ4Ljp/stream-input?") {
		t.Errorf("unexpected URL %s", u)
	}
	for _, part := range []string{"model_id=eleven_flash_v2_5", "output_format=pcm_16000"} {
		if !strings.Contains(u, part) {
			t.Errorf("URL %s missing %s", u, part)
		}
	}

	local, _ := New("key", WithBaseURL("http://127.0.0.1:9999/"))
	u, _ = local.streamURL("v1")
	if !strings.HasPrefix(u, "ws://127.0.0.1:9999/v1/") {
		t.Errorf("local URL = %s", u)
	}
}

// ---- Streaming against a fake server ----

// fakeServer accepts one stream-input socket, records the client messages
// and answers every text fragment with one audio frame.
type fakeServer struct {
	mu       sync.Mutex
	path     string
	messages []map[string]any
}

func (f *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	f.mu.Lock()
	f.path = r.URL.Path
	f.mu.Unlock()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg map[string]any
		_ = json.Unmarshal(data, &msg)
		f.mu.Lock()
		f.messages = append(f.messages, msg)
		f.mu.Unlock()

		text, _ := msg["text"].(string)
		switch {
		case text == "":
			final, _ := json.Marshal(audioResponse{IsFinal: true})
			_ = conn.Write(ctx, websocket.MessageText, final)
			return
		case strings.TrimSpace(text) == "":
			// opening message
		default:
			frame, _ := json.Marshal(audioResponse{Audio: base64.StdEncoding.EncodeToString([]byte("pcm:" + text))})
			_ = conn.Write(ctx, websocket.MessageText, frame)
		}
	}
}

func TestSynthesizeStream_SendsSettingsAndReturnsAudio(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(srv.Close)

	p, err := New("secret", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text := make(chan string, 3)
	text <- "Take a slow breath."
	text <- "   "
	text <- "I'm here with you."
	close(text)

	audio, err := p.SynthesizeStream(ctx, text, tts.Voice{
		ID:       "kcQkGnn0HAT2JRDQ4Ljp",
		Settings: &tts.VoiceSettings{Stability: 0.9, SimilarityBoost: 0.75, Style: 0.05, UseSpeakerBoost: true},
	})
	if err != nil {
		t.Fatalf("SynthesizeStream: %v", err)
	}

	var got []string
	for chunk := range audio {
		got = append(got, string(chunk))
	}
	want := []string{"pcm:Take a slow breath.", "pcm:I'm here with you."}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("audio = %q, want %q", got, want)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.path != "/v1/text-to-speech/kcQkGnn0HAT2JRDQ4Ljp/stream-input" {
		t.Errorf("path = %q", fake.path)
	}
	if len(fake.messages) != 4 {
		t.Fatalf("server saw %d messages, want BOI + 2 fragments + flush", len(fake.messages))
	}
	boi := fake.messages[0]
	if boi["xi_api_key"] != "secret" {
		t.Errorf("BOI api key = %v", boi["xi_api_key"])
	}
	vs, _ := boi["voice_settings"].(map[string]any)
	if vs["stability"] != 0.9 || vs["style"] != 0.05 || vs["use_speaker_boost"] != true {
		t.Errorf("BOI voice_settings = %v", vs)
	}
	if _, ok := fake.messages[1]["voice_settings"]; ok {
		t.Error("fragments should not repeat voice_settings")
	}
}

func TestSynthesizeStream_EmptyVoiceID(t *testing.T) {
	t.Parallel()
	p, _ := New("key")
	if _, err := p.SynthesizeStream(context.Background(), make(chan string), tts.Voice{}); err == nil {
		t.Fatal("expected error for empty voice ID")
	}
}

// ---- ListVoices ----

func TestListVoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" || r.Header.Get("xi-api-key") != "key" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"voices":[
			{"voice_id":"21m00Tcm4TlvDq8ikWAM","name":"Rachel","category":"premade","labels":{"gender":"female"}},
			{"voice_id":"x1","name":"Ghost","category":"","labels":null}
		]}`))
	}))
	t.Cleanup(srv.Close)

	p, _ := New("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(voices))
	}
	if voices[0].Name != "Rachel" || voices[0].Labels["gender"] != "female" || voices[0].Labels["category"] != "premade" {
		t.Errorf("voices[0] = %+v", voices[0])
	}
	if _, ok := voices[1].Labels["category"]; ok {
		t.Error("empty category should not be copied into labels")
	}

	bad, _ := New("wrong", WithBaseURL(srv.URL))
	if _, err := bad.ListVoices(context.Background()); err == nil {
		t.Error("expected error for non-200 status")
	}
}

// ---- Constructor ----

func TestNew(t *testing.T) {
	t.Parallel()
	if _, err := New(""); err == nil {
		t.Error("expected error for empty API key")
	}

	p, err := New("key", WithModel("eleven_multilingual_v2"), WithOutputFormat("pcm_24000"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != "eleven_multilingual_v2" || p.OutputFormat() != "pcm_24000" {
		t.Errorf("options not applied: model=%q format=%q", p.model, p.outputFormat)
	}
}
