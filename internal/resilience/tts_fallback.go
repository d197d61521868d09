package resilience

import (
	"context"

	"github.com/MrWong99/solace/pkg/provider/tts"
)

// TTSFallback is a [tts.Provider] that fails over between speech backends.
//
// Only stream setup is covered. Once a backend has accepted the text channel,
// errors inside the stream surface as a short or closed audio channel.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another backend tried after the ones already added.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	f.group.AddFallback(name, provider)
}

// Status reports the breaker state of every backend.
func (f *TTSFallback) Status() []EntryStatus { return f.group.Status() }

// Available reports whether any backend would currently accept a request.
func (f *TTSFallback) Available() bool { return f.group.Available() }

// SynthesizeStream opens a stream on the first backend that accepts it.
func (f *TTSFallback) SynthesizeStream(ctx context.Context, text <-chan string, voice tts.Voice) (<-chan []byte, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) (<-chan []byte, error) {
		return p.SynthesizeStream(ctx, text, voice)
	})
}

// ListVoices lists voices from the first backend that answers.
func (f *TTSFallback) ListVoices(ctx context.Context) ([]tts.VoiceInfo, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) ([]tts.VoiceInfo, error) {
		return p.ListVoices(ctx)
	})
}
