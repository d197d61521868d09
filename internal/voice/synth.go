package voice

import (
	"fmt"
	"math"
	"strings"

	"github.com/MrWong99/solace/internal/emotion"
)

// Settings is the provider-facing parameter set of a voice.
type Settings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarityBoost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"speakerBoost"`
}

// Adjustment is the target stability and style a voice moves towards in a
// given emotional context. Similarity and speaker boost never change with
// context so the voice keeps its timbre.
type Adjustment struct {
	Stability float64 `json:"stability"`
	Style     float64 `json:"style"`
}

// Profile is the synthesis configuration of one voice.
type Profile struct {
	// BaseVoiceID is the provider key sent with synthesis requests. When empty
	// it is filled from the catalog by [NewSynthesizer].
	BaseVoiceID string

	Base        Settings
	Adjustments map[emotion.Context]Adjustment
}

// Parameters are the final settings for one TTS call. Numeric fields are in
// [0, 1].
type Parameters struct {
	VoiceID         string  `json:"voiceId"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarityBoost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"speakerBoost"`
}

// Synthesizer computes [Parameters] from per-voice profiles.
type Synthesizer struct {
	profiles map[string]Profile
}

// NewSynthesizer builds a [Synthesizer] keyed by voice name (case-insensitive).
// Every voice in catalog must have a profile; missing ones are reported as a
// [*ConfigError]. Profiles without a BaseVoiceID inherit the catalog ID.
func NewSynthesizer(catalog *Catalog, profiles map[string]Profile) (*Synthesizer, error) {
	s := &Synthesizer{profiles: make(map[string]Profile, len(profiles))}
	for name, p := range profiles {
		if p.BaseVoiceID == "" {
			if id, ok := catalog.Lookup(name); ok {
				p.BaseVoiceID = id.ID
			}
		}
		adj := make(map[emotion.Context]Adjustment, len(p.Adjustments))
		for c, a := range p.Adjustments {
			adj[c] = a
		}
		p.Adjustments = adj
		s.profiles[strings.ToLower(name)] = p
	}

	for _, id := range catalog.All() {
		if _, ok := s.profiles[strings.ToLower(id.Name)]; !ok {
			return nil, &ConfigError{Voice: id.Name, Reason: "no synthesis profile"}
		}
	}
	return s, nil
}

// Profile returns the profile registered for voiceName.
func (s *Synthesizer) Profile(voiceName string) (Profile, bool) {
	p, ok := s.profiles[strings.ToLower(strings.TrimSpace(voiceName))]
	return p, ok
}

// Synthesize blends a voice's base settings towards its adjustment for ctx.
//
// intensity is a linear interpolation factor clamped to [0, 1]: 0 yields the
// base stability and style, 1 yields the adjustment values exactly. The
// neutral context, and any context the profile has no adjustment for, yields
// the base settings. A voice without a profile is a [*ConfigError].
func (s *Synthesizer) Synthesize(voiceName string, ctx emotion.Context, intensity float64) (Parameters, error) {
	p, ok := s.Profile(voiceName)
	if !ok {
		return Parameters{}, &ConfigError{Voice: voiceName, Reason: "no synthesis profile"}
	}
	if p.BaseVoiceID == "" {
		return Parameters{}, &ConfigError{Voice: voiceName, Reason: "profile has no provider voice id"}
	}

	stability, style := p.Base.Stability, p.Base.Style
	if ctx != emotion.Neutral {
		if adj, ok := p.Adjustments[ctx]; ok {
			t := clamp01(intensity)
			stability = lerp(p.Base.Stability, adj.Stability, t)
			style = lerp(p.Base.Style, adj.Style, t)
		}
	}

	return Parameters{
		VoiceID:         p.BaseVoiceID,
		Stability:       clamp01(stability),
		SimilarityBoost: clamp01(p.Base.SimilarityBoost),
		Style:           clamp01(style),
		SpeakerBoost:    p.Base.SpeakerBoost,
	}, nil
}

// lerp is written as a weighted sum so t=0 and t=1 reproduce a and b
// bit-for-bit.
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// ValidateSettings reports an error when any numeric field of s lies outside
// [0, 1].
func ValidateSettings(s Settings) error {
	fields := []struct {
		name string
		v    float64
	}{
		{"stability", s.Stability},
		{"similarity_boost", s.SimilarityBoost},
		{"style", s.Style},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s %.2f is out of range [0, 1]", f.name, f.v)
		}
	}
	return nil
}
