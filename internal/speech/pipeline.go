package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/solace/internal/emotion"
	"github.com/MrWong99/solace/internal/observe"
	"github.com/MrWong99/solace/internal/voice"
	"github.com/MrWong99/solace/pkg/provider/tts"
)

var (
	// ErrNoTTS is returned by [Pipeline.Speak] when no speech provider is
	// configured.
	ErrNoTTS = errors.New("speech: no text-to-speech provider configured")

	// ErrEmptyText is returned by [Pipeline.Speak] for blank text.
	ErrEmptyText = errors.New("speech: nothing to say")

	// ErrInvalidContext is returned by [Pipeline.Resolve] when a request
	// names an emotional context that does not exist.
	ErrInvalidContext = errors.New("speech: unknown emotional context")
)

// SourceRequest marks a context supplied by the caller instead of classified.
const SourceRequest emotion.Source = "request"

// Request describes the conversational state a reply is voiced for.
type Request struct {
	// Message is the user's message the reply answers. It drives
	// classification.
	Message string `json:"message"`

	// PriorEmotion is an emotion label detected earlier in the conversation.
	PriorEmotion string `json:"priorEmotion,omitempty"`

	// Mood is the user's current mood label, used to pick a voice.
	Mood string `json:"mood,omitempty"`

	// Preference is an explicit voice name or name fragment.
	Preference string `json:"preference,omitempty"`

	// Intensity overrides the configured default interpolation factor.
	Intensity *float64 `json:"intensity,omitempty"`

	// Context, when set, is used as is and classification is skipped.
	Context emotion.Context `json:"context,omitempty"`
}

// Resolution is everything needed to voice a reply.
type Resolution struct {
	Context       emotion.Context `json:"context"`
	ContextSource emotion.Source  `json:"contextSource"`
	Keyword       string          `json:"keyword,omitempty"`

	Voice       voice.Identity   `json:"voice"`
	VoiceReason voice.Reason     `json:"voiceReason"`
	Intensity   float64          `json:"intensity"`
	Parameters  voice.Parameters `json:"parameters"`
}

// Pipeline composes the classifier, selector, synthesizer, and TTS provider.
// It is safe for concurrent use; [Pipeline.Swap] replaces the voice tables
// without affecting requests already in flight.
type Pipeline struct {
	tables atomic.Pointer[Tables]

	tts     tts.Provider
	ttsName string
	metrics *observe.Metrics
	now     func() time.Time
}

// Option configures a [Pipeline].
type Option func(*Pipeline)

// WithTTS sets the speech provider. name labels it in metrics.
func WithTTS(p tts.Provider, name string) Option {
	return func(pl *Pipeline) {
		pl.tts = p
		pl.ttsName = name
	}
}

// WithMetrics sets the metrics sink. The default is [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(pl *Pipeline) {
		if m != nil {
			pl.metrics = m
		}
	}
}

// New creates a [Pipeline] over t.
func New(t *Tables, opts ...Option) *Pipeline {
	p := &Pipeline{metrics: observe.DefaultMetrics(), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	p.tables.Store(t)
	return p
}

// Tables returns the current snapshot.
func (p *Pipeline) Tables() *Tables {
	return p.tables.Load()
}

// Swap installs t for all subsequent requests.
func (p *Pipeline) Swap(t *Tables) {
	p.tables.Store(t)
}

// HasTTS reports whether a speech provider is configured.
func (p *Pipeline) HasTTS() bool {
	return p.tts != nil
}

// Resolve classifies req, picks a voice, and computes its parameters. The
// only error it returns besides [ErrInvalidContext] is a configuration error
// from the synthesizer, which callers must not paper over with defaults.
func (p *Pipeline) Resolve(ctx context.Context, req Request) (Resolution, error) {
	t := p.Tables()

	var match emotion.Match
	if req.Context != "" {
		c, ok := emotion.ParseContext(string(req.Context))
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidContext, req.Context)
		}
		match = emotion.Match{Context: c, Source: SourceRequest}
	} else {
		match = emotion.Explain(req.Message, req.PriorEmotion)
	}
	p.metrics.RecordClassification(ctx, match.Context.String(), string(match.Source))

	id, reason := t.Selector.Choose(req.Mood, req.Preference)
	p.metrics.RecordVoiceSelection(ctx, id.Name, string(reason))

	intensity := t.DefaultIntensity
	if req.Intensity != nil {
		intensity = *req.Intensity
	}

	params, err := t.Synthesizer.Synthesize(id.Name, match.Context, intensity)
	if err != nil {
		observe.Logger(ctx).Error("voice synthesis misconfigured", "voice", id.Name, "err", err)
		return Resolution{}, fmt.Errorf("speech: resolve: %w", err)
	}

	observe.Logger(ctx).Debug("resolved voice",
		"context", match.Context,
		"context_source", match.Source,
		"voice", id.Name,
		"voice_reason", reason,
		"intensity", intensity,
	)

	return Resolution{
		Context:       match.Context,
		ContextSource: match.Source,
		Keyword:       match.Keyword,
		Voice:         id,
		VoiceReason:   reason,
		Intensity:     intensity,
		Parameters:    params,
	}, nil
}

// Speak synthesizes text with the voice and parameters in res. The returned
// channel yields audio in the provider's output format and is closed when the
// stream ends or ctx is cancelled.
func (p *Pipeline) Speak(ctx context.Context, text string, res Resolution) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	fragments := make(chan string, 1)
	fragments <- text
	close(fragments)
	return p.SpeakStream(ctx, fragments, res)
}

// SpeakStream is [Pipeline.Speak] for text that arrives in fragments, such as
// a streamed model reply.
func (p *Pipeline) SpeakStream(ctx context.Context, text <-chan string, res Resolution) (<-chan []byte, error) {
	if p.tts == nil {
		return nil, ErrNoTTS
	}
	if res.Parameters.VoiceID == "" {
		return nil, fmt.Errorf("speech: speak: %w", &voice.ConfigError{Voice: res.Voice.Name, Reason: "resolution has no provider voice id"})
	}

	ctx, span := observe.StartSpan(ctx, "speech.speak", trace.WithAttributes(
		attribute.String("voice", res.Voice.Name),
		attribute.String("context", res.Context.String()),
	))

	v := tts.Voice{
		ID:   res.Parameters.VoiceID,
		Name: res.Voice.Name,
		Settings: &tts.VoiceSettings{
			Stability:       res.Parameters.Stability,
			SimilarityBoost: res.Parameters.SimilarityBoost,
			Style:           res.Parameters.Style,
			UseSpeakerBoost: res.Parameters.SpeakerBoost,
		},
	}

	start := p.now()
	upstream, err := p.tts.SynthesizeStream(ctx, text, v)
	if err != nil {
		p.metrics.RecordProviderRequest(ctx, p.ttsName, "tts", "error")
		p.metrics.RecordProviderError(ctx, p.ttsName, "tts")
		observe.EndSpan(span, err)
		return nil, fmt.Errorf("speech: speak: %w", err)
	}
	p.metrics.RecordProviderRequest(ctx, p.ttsName, "tts", "ok")
	p.metrics.ActiveStreams.Add(ctx, 1)

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer span.End()
		defer p.metrics.ActiveStreams.Add(context.WithoutCancel(ctx), -1)

		first := true
		for chunk := range upstream {
			if first {
				first = false
				p.metrics.TTSFirstAudio.Record(ctx, p.now().Sub(start).Seconds(),
					metric.WithAttributes(attribute.String("provider", p.ttsName)))
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				// Drain so the provider goroutine can exit.
				for range upstream {
				}
				return
			}
		}
	}()
	return out, nil
}
