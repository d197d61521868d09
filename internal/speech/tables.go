// Package speech resolves how Solace should sound for a message and streams
// the synthesized reply.
//
// A [Pipeline] classifies the emotional context of a message, picks a voice
// from the user's mood and preference, computes the voice parameters, and
// hands them to a text-to-speech provider. The voice tables it reads are an
// immutable [Tables] snapshot that is swapped wholesale on config reload.
package speech

import (
	"fmt"

	"github.com/MrWong99/solace/internal/voice"
)

// Tables is one consistent set of voice configuration. It is never modified
// after [NewTables] returns.
type Tables struct {
	Catalog     *voice.Catalog
	Selector    *voice.Selector
	Synthesizer *voice.Synthesizer

	// DefaultIntensity applies to requests that carry no intensity.
	DefaultIntensity float64
}

// NewTables validates and builds a snapshot. Any inconsistency is returned as
// an error wrapping [voice.ErrConfiguration].
func NewTables(identities []voice.Identity, moods map[string]string, profiles map[string]voice.Profile, defaultIntensity float64) (*Tables, error) {
	catalog, err := voice.NewCatalog(identities...)
	if err != nil {
		return nil, fmt.Errorf("speech: build catalog: %w", err)
	}
	selector, err := voice.NewSelector(catalog, moods)
	if err != nil {
		return nil, fmt.Errorf("speech: build selector: %w", err)
	}
	synth, err := voice.NewSynthesizer(catalog, profiles)
	if err != nil {
		return nil, fmt.Errorf("speech: build synthesizer: %w", err)
	}
	if defaultIntensity < 0 || defaultIntensity > 1 {
		return nil, fmt.Errorf("speech: build tables: %w", &voice.ConfigError{
			Reason: fmt.Sprintf("default intensity %.2f is out of range [0, 1]", defaultIntensity),
		})
	}
	return &Tables{
		Catalog:          catalog,
		Selector:         selector,
		Synthesizer:      synth,
		DefaultIntensity: defaultIntensity,
	}, nil
}

// DefaultTables builds the snapshot from the built-in voice data.
func DefaultTables(defaultIntensity float64) (*Tables, error) {
	return NewTables(voice.DefaultIdentities, voice.DefaultMoods, voice.DefaultProfiles, defaultIntensity)
}
