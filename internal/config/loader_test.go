package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/solace/internal/config"
	"github.com/MrWong99/solace/internal/voice"
)

func validConfig() *config.Config {
	return &config.Config{
		Providers: config.ProvidersConfig{
			LLM: config.ProviderEntry{Name: "openai"},
			TTS: config.ProviderEntry{Name: "elevenlabs"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mutate     func(c *config.Config)
		wantSubstr []string
		wantVoice  bool
	}{
		{
			name:   "valid",
			mutate: func(*config.Config) {},
		},
		{
			name:       "invalid log level",
			mutate:     func(c *config.Config) { c.Server.LogLevel = "verbose" },
			wantSubstr: []string{"server.log_level"},
		},
		{
			name:       "tls without key",
			mutate:     func(c *config.Config) { c.Server.TLS = &config.TLSConfig{CertFile: "cert.pem"} },
			wantSubstr: []string{"server.tls"},
		},
		{
			name: "fallback without primary",
			mutate: func(c *config.Config) {
				c.Providers.TTS = config.ProviderEntry{}
				c.Providers.TTSFallbacks = []config.ProviderEntry{{Name: "elevenlabs"}}
			},
			wantSubstr: []string{"providers.tts_fallbacks requires providers.tts"},
		},
		{
			name: "fallback without name",
			mutate: func(c *config.Config) {
				c.Providers.LLMFallbacks = []config.ProviderEntry{{Model: "llama3"}}
			},
			wantSubstr: []string{"providers.llm_fallbacks[0].name is required"},
		},
		{
			name:       "intensity out of range",
			mutate:     func(c *config.Config) { c.Voice.DefaultIntensity = 1.5 },
			wantSubstr: []string{"voice.default_intensity"},
		},
		{
			name: "two default voices",
			mutate: func(c *config.Config) {
				c.Voice.Catalog = []config.VoiceEntry{
					{ID: "a", Name: "Hope", Default: true},
					{ID: "b", Name: "Carla", Default: true},
				}
			},
			wantSubstr: []string{"voice.catalog", "exactly one"},
			wantVoice:  true,
		},
		{
			name: "no default voice",
			mutate: func(c *config.Config) {
				c.Voice.Catalog = []config.VoiceEntry{{ID: "a", Name: "Hope"}}
			},
			wantSubstr: []string{"no voice is flagged as default"},
			wantVoice:  true,
		},
		{
			name:       "mood to unknown voice suggests a name",
			mutate:     func(c *config.Config) { c.Voice.Moods = map[string]string{"sleepy": "Jmes"} },
			wantSubstr: []string{"voice.moods[sleepy]", `did you mean "James"?`},
			wantVoice:  true,
		},
		{
			name: "profile for unknown voice",
			mutate: func(c *config.Config) {
				c.Voice.Profiles = map[string]config.ProfileEntry{"Bela": {Base: config.SettingsEntry{Stability: 0.5}}}
			},
			wantSubstr: []string{"voice.profiles[Bela]", `did you mean "Bella"?`},
			wantVoice:  true,
		},
		{
			name: "unknown adjustment context",
			mutate: func(c *config.Config) {
				c.Voice.Profiles = map[string]config.ProfileEntry{"Hope": {
					Base:        config.SettingsEntry{Stability: 0.5, SimilarityBoost: 0.5},
					Adjustments: map[string]config.AdjustmentEntry{"calmng": {Stability: 0.8}},
				}}
			},
			wantSubstr: []string{`unknown context "calmng"`, `did you mean "calming"?`},
		},
		{
			name: "settings out of range",
			mutate: func(c *config.Config) {
				c.Voice.Profiles = map[string]config.ProfileEntry{"Hope": {
					Base:        config.SettingsEntry{Stability: 1.2},
					Adjustments: map[string]config.AdjustmentEntry{"crisis": {Style: -0.1}},
				}}
			},
			wantSubstr: []string{"voice.profiles[Hope].base", "voice.profiles[Hope].adjustments[crisis]"},
		},
		{
			name: "custom catalog without profiles",
			mutate: func(c *config.Config) {
				c.Voice.Catalog = []config.VoiceEntry{{ID: "x1", Name: "Nova", Default: true}}
			},
			wantSubstr: []string{"voice.profiles", "no synthesis profile"},
			wantVoice:  true,
		},
		{
			name: "hotline label without number",
			mutate: func(c *config.Config) {
				c.Crisis.Hotline = config.HotlineEntry{Label: "Lifeline"}
			},
			wantSubstr: []string{"crisis.hotline.number"},
		},
		{
			name:       "analyzer temperature",
			mutate:     func(c *config.Config) { c.Crisis.AnalyzerTemperature = 3 },
			wantSubstr: []string{"crisis.analyzer_temperature"},
		},
		{
			name: "check-in delays",
			mutate: func(c *config.Config) {
				c.CheckIn.Delays = map[string]time.Duration{"hihg": time.Hour, "critical": 0}
			},
			wantSubstr: []string{`unknown risk level "hihg"`, `did you mean "high"?`, "checkin.delays[critical] must be positive"},
		},
		{
			name:       "negative sweep interval",
			mutate:     func(c *config.Config) { c.CheckIn.SweepInterval = -time.Second },
			wantSubstr: []string{"checkin.sweep_interval"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := config.Validate(cfg)

			if len(tt.wantSubstr) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected a validation error")
			}
			for _, s := range tt.wantSubstr {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("error %q does not mention %q", err, s)
				}
			}
			if tt.wantVoice && !errors.Is(err, voice.ErrConfiguration) {
				t.Errorf("error %v should wrap voice.ErrConfiguration", err)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.LogLevel = "loud"
	cfg.Voice.DefaultIntensity = -1
	cfg.Crisis.AnalyzerTemperature = 5

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	if n := len(strings.Split(err.Error(), "\n")); n != 3 {
		t.Errorf("got %d problems, want 3:\n%v", n, err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	for _, kind := range []string{"llm", "tts"} {
		if len(config.ValidProviderNames[kind]) == 0 {
			t.Errorf("no known names for %s", kind)
		}
	}
}
