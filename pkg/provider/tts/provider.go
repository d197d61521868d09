// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider turns a stream of text fragments into a stream of raw audio
// bytes. Callers pass the resolved [Voice], including the per-request
// expressive [VoiceSettings], so the same voice can sound calmer or warmer
// depending on the emotional context of the conversation.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// VoiceSettings are the expressive controls sent with a synthesis request.
// All numeric fields are in [0, 1].
type VoiceSettings struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
	UseSpeakerBoost bool
}

// Voice identifies the voice to synthesise with.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name. Informational only.
	Name string

	// Settings overrides the provider's stored settings for this voice.
	// Nil leaves the provider defaults in place.
	Settings *VoiceSettings
}

// VoiceInfo describes a voice available from a provider account.
type VoiceInfo struct {
	ID       string
	Name     string
	Provider string

	// Labels holds provider-specific attributes (gender, accent, category).
	Labels map[string]string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// SynthesizeStream consumes text fragments from text and returns a channel
	// of raw audio chunks. The audio channel is closed when all text has been
	// synthesised or when ctx is cancelled; callers must drain it.
	//
	// Returns a non-nil error only if the stream cannot be started. Errors
	// during synthesis close the audio channel early.
	SynthesizeStream(ctx context.Context, text <-chan string, voice Voice) (<-chan []byte, error)

	// ListVoices returns the voices available to the configured account.
	ListVoices(ctx context.Context) ([]VoiceInfo, error)
}
