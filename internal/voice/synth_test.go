package voice

import (
	"errors"
	"testing"

	"github.com/MrWong99/solace/internal/emotion"
)

func mustDefaultSynthesizer(t *testing.T) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(mustDefaultCatalog(t), DefaultProfiles)
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	return s
}

var intensities = []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}

func TestSynthesize_NeutralIsBaseForAnyIntensity(t *testing.T) {
	t.Parallel()
	s := mustDefaultSynthesizer(t)

	for name, p := range DefaultProfiles {
		for _, in := range intensities {
			got, err := s.Synthesize(name, emotion.Neutral, in)
			if err != nil {
				t.Fatalf("Synthesize(%s, neutral, %v): %v", name, in, err)
			}
			if got.Stability != p.Base.Stability || got.Style != p.Base.Style ||
				got.SimilarityBoost != p.Base.SimilarityBoost || got.SpeakerBoost != p.Base.SpeakerBoost {
				t.Errorf("Synthesize(%s, neutral, %v) = %+v, want base %+v", name, in, got, p.Base)
			}
		}
	}
}

func TestSynthesize_ZeroIntensityCollapsesToBase(t *testing.T) {
	t.Parallel()
	s := mustDefaultSynthesizer(t)

	for name := range DefaultProfiles {
		want, err := s.Synthesize(name, emotion.Neutral, 0)
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		for _, c := range emotion.All {
			got, err := s.Synthesize(name, c, 0)
			if err != nil {
				t.Fatalf("Synthesize(%s, %s, 0): %v", name, c, err)
			}
			if got != want {
				t.Errorf("Synthesize(%s, %s, 0) = %+v, want %+v", name, c, got, want)
			}
		}
	}
}

func TestSynthesize_FullIntensityHitsAdjustmentExactly(t *testing.T) {
	t.Parallel()
	s := mustDefaultSynthesizer(t)

	for name, p := range DefaultProfiles {
		for c, adj := range p.Adjustments {
			got, err := s.Synthesize(name, c, 1)
			if err != nil {
				t.Fatalf("Synthesize(%s, %s, 1): %v", name, c, err)
			}
			if got.Stability != adj.Stability {
				t.Errorf("%s/%s stability = %v, want %v", name, c, got.Stability, adj.Stability)
			}
			if got.Style != adj.Style {
				t.Errorf("%s/%s style = %v, want %v", name, c, got.Style, adj.Style)
			}
			if got.SimilarityBoost != p.Base.SimilarityBoost || got.SpeakerBoost != p.Base.SpeakerBoost {
				t.Errorf("%s/%s changed similarity/speaker boost: %+v", name, c, got)
			}
		}
	}
}

func TestSynthesize_OutputsStayInUnitRange(t *testing.T) {
	t.Parallel()
	s := mustDefaultSynthesizer(t)

	for name := range DefaultProfiles {
		for _, c := range emotion.All {
			for _, in := range intensities {
				got, err := s.Synthesize(name, c, in)
				if err != nil {
					t.Fatalf("Synthesize: %v", err)
				}
				for field, v := range map[string]float64{
					"stability":  got.Stability,
					"similarity": got.SimilarityBoost,
					"style":      got.Style,
				} {
					if v < 0 || v > 1 {
						t.Errorf("%s/%s/%v %s = %v out of [0,1]", name, c, in, field, v)
					}
				}
			}
		}
	}
}

func TestSynthesize_Interpolates(t *testing.T) {
	t.Parallel()
	s := mustDefaultSynthesizer(t)

	// Carla: base stability 0.7, crisis 0.9; base style 0.2, crisis 0.05.
	got, err := s.Synthesize("Carla", emotion.Crisis, 0.5)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !approx(got.Stability, 0.8) {
		t.Errorf("stability = %v, want 0.8", got.Stability)
	}
	if !approx(got.Style, 0.125) {
		t.Errorf("style = %v, want 0.125", got.Style)
	}
}

func TestSynthesize_ClampsMisconfiguredProfile(t *testing.T) {
	t.Parallel()
	cat, err := NewCatalog(Identity{ID: "v1", Name: "Odd", Default: true})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	s, err := NewSynthesizer(cat, map[string]Profile{
		"Odd": {
			Base: Settings{Stability: 0.5, SimilarityBoost: 1.4, Style: 0.5},
			Adjustments: map[emotion.Context]Adjustment{
				emotion.Energizing: {Stability: -0.5, Style: 2},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	got, err := s.Synthesize("odd", emotion.Energizing, 1)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got.Stability != 0 || got.Style != 1 || got.SimilarityBoost != 1 {
		t.Errorf("got %+v, want clamped stability=0 style=1 similarity=1", got)
	}

	// Intensity outside [0, 1] is clamped before interpolating.
	got, err = s.Synthesize("odd", emotion.Energizing, 5)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got.Stability != 0 || got.Style != 1 {
		t.Errorf("intensity 5: got %+v", got)
	}
	got, err = s.Synthesize("odd", emotion.Energizing, -3)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got.Stability != 0.5 || got.Style != 0.5 {
		t.Errorf("intensity -3: got %+v, want base", got)
	}
}

func TestSynthesize_MissingAdjustmentUsesBase(t *testing.T) {
	t.Parallel()
	cat, _ := NewCatalog(Identity{ID: "v1", Name: "Plain", Default: true})
	s, err := NewSynthesizer(cat, map[string]Profile{
		"Plain": {Base: Settings{Stability: 0.4, SimilarityBoost: 0.6, Style: 0.2}},
	})
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	got, err := s.Synthesize("Plain", emotion.Crisis, 1)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got.Stability != 0.4 || got.Style != 0.2 || got.VoiceID != "v1" {
		t.Errorf("got %+v, want base settings with catalog voice id", got)
	}
}

func TestSynthesize_UnknownVoiceIsConfigError(t *testing.T) {
	t.Parallel()
	s := mustDefaultSynthesizer(t)

	_, err := s.Synthesize("Morpheus", emotion.Calming, 0.5)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestNewSynthesizer_MissingProfileIsConfigError(t *testing.T) {
	t.Parallel()
	_, err := NewSynthesizer(mustDefaultCatalog(t), map[string]Profile{
		"Hope": DefaultProfiles["Hope"],
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()
	if err := ValidateSettings(Settings{Stability: 0.5, SimilarityBoost: 1, Style: 0}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateSettings(Settings{Stability: 1.5}); err == nil {
		t.Error("expected error for stability 1.5")
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
