// Package config provides the configuration schema, loader, hot-reload
// watcher, and provider registry for the Solace server.
package config

import (
	"maps"
	"strings"
	"time"

	"github.com/MrWong99/solace/internal/crisis"
	"github.com/MrWong99/solace/internal/emotion"
	"github.com/MrWong99/solace/internal/voice"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DefaultIntensity is used when voice.default_intensity is not set and a
// request carries no intensity of its own.
const DefaultIntensity = 0.7

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Voice     VoiceConfig     `yaml:"voice"`
	Crisis    CrisisConfig    `yaml:"crisis"`
	CheckIn   CheckInConfig   `yaml:"checkin"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on. Default ":8080".
	ListenAddr string `yaml:"listen_addr"`

	LogLevel LogLevel `yaml:"log_level"`

	// TLS enables HTTPS when set.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds PEM file paths for HTTPS.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ProvidersConfig selects the chat model used for crisis analysis and the
// speech vendor. Fallbacks are tried in order when the primary fails.
type ProvidersConfig struct {
	LLM          ProviderEntry   `yaml:"llm"`
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
	TTS          ProviderEntry   `yaml:"tts"`
	TTSFallbacks []ProviderEntry `yaml:"tts_fallbacks"`
}

// ProviderEntry is the configuration block shared by all provider kinds.
// Name selects the constructor in the [Registry].
type ProviderEntry struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	// Options holds provider-specific values not covered above.
	Options map[string]any `yaml:"options"`
}

// VoiceConfig overrides the built-in voice tables. Every field is optional.
type VoiceConfig struct {
	// Catalog replaces the built-in voices entirely when non-empty.
	Catalog []VoiceEntry `yaml:"catalog"`

	// Profiles replaces the built-in synthesis profile of each named voice.
	Profiles map[string]ProfileEntry `yaml:"profiles"`

	// Moods adds to or overrides the built-in mood-to-voice table.
	Moods map[string]string `yaml:"moods"`

	// DefaultIntensity is the interpolation factor used when a request has
	// none. Zero selects [DefaultIntensity].
	DefaultIntensity float64 `yaml:"default_intensity"`
}

// VoiceEntry is one catalog voice.
type VoiceEntry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Gender  string   `yaml:"gender"`
	Tags    []string `yaml:"tags"`
	Default bool     `yaml:"default"`
}

// SettingsEntry mirrors [voice.Settings].
type SettingsEntry struct {
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
	SpeakerBoost    bool    `yaml:"speaker_boost"`
}

// AdjustmentEntry mirrors [voice.Adjustment].
type AdjustmentEntry struct {
	Stability float64 `yaml:"stability"`
	Style     float64 `yaml:"style"`
}

// ProfileEntry mirrors [voice.Profile]. Adjustments are keyed by emotional
// context name.
type ProfileEntry struct {
	BaseVoiceID string                     `yaml:"base_voice_id"`
	Base        SettingsEntry              `yaml:"base"`
	Adjustments map[string]AdjustmentEntry `yaml:"adjustments"`
}

// CrisisConfig tunes the crisis gate and analyzer.
type CrisisConfig struct {
	// Hotline overrides the direct-dial crisis line.
	Hotline HotlineEntry `yaml:"hotline"`

	// FallbackContacts are shown when an elevated analysis has none.
	FallbackContacts []string `yaml:"fallback_contacts"`

	// AnalyzerTemperature is the sampling temperature for the analysis
	// model. Zero keeps the analyzer default.
	AnalyzerTemperature float64 `yaml:"analyzer_temperature"`
}

// HotlineEntry mirrors [crisis.Hotline].
type HotlineEntry struct {
	Number string `yaml:"number"`
	Label  string `yaml:"label"`
}

// CheckInConfig selects the check-in store. PostgresDSN wins over File; with
// neither set check-ins are not persisted.
type CheckInConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	File        string `yaml:"file"`

	// SweepInterval is how often due check-ins are counted and logged.
	// Default 1m.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// Delays overrides the due delay per risk level.
	Delays map[string]time.Duration `yaml:"delays"`
}

// Enabled reports whether a store is configured.
func (c CheckInConfig) Enabled() bool {
	return c.PostgresDSN != "" || c.File != ""
}

// Identities converts the configured catalog, or returns the built-in one.
func (v VoiceConfig) Identities() []voice.Identity {
	if len(v.Catalog) == 0 {
		return voice.DefaultIdentities
	}
	out := make([]voice.Identity, len(v.Catalog))
	for i, e := range v.Catalog {
		out[i] = voice.Identity{
			ID:      e.ID,
			Name:    e.Name,
			Gender:  voice.Gender(e.Gender),
			Tags:    e.Tags,
			Default: e.Default,
		}
	}
	return out
}

// SynthesisProfiles returns the built-in profiles with configured ones laid
// over them. Adjustment keys that are not emotional contexts are dropped;
// [Validate] reports them.
func (v VoiceConfig) SynthesisProfiles() map[string]voice.Profile {
	out := maps.Clone(voice.DefaultProfiles)
	for name, p := range v.Profiles {
		adj := make(map[emotion.Context]voice.Adjustment, len(p.Adjustments))
		for k, a := range p.Adjustments {
			if c, ok := emotion.ParseContext(k); ok {
				adj[c] = voice.Adjustment{Stability: a.Stability, Style: a.Style}
			}
		}
		out[name] = voice.Profile{
			BaseVoiceID: p.BaseVoiceID,
			Base: voice.Settings{
				Stability:       p.Base.Stability,
				SimilarityBoost: p.Base.SimilarityBoost,
				Style:           p.Base.Style,
				SpeakerBoost:    p.Base.SpeakerBoost,
			},
			Adjustments: adj,
		}
	}
	return out
}

// MoodTable returns the built-in mood table merged with the configured moods.
// A custom catalog does not inherit the built-in table, since its voice names
// differ; only the configured moods apply.
func (v VoiceConfig) MoodTable() map[string]string {
	if len(v.Catalog) == 0 {
		return voice.MergeMoods(v.Moods)
	}
	out := make(map[string]string, len(v.Moods))
	for mood, name := range v.Moods {
		out[strings.ToLower(strings.TrimSpace(mood))] = name
	}
	return out
}

// Intensity returns the effective default intensity.
func (v VoiceConfig) Intensity() float64 {
	if v.DefaultIntensity == 0 {
		return DefaultIntensity
	}
	return v.DefaultIntensity
}

// GateOptions converts the crisis settings into gate options.
func (c CrisisConfig) GateOptions() []crisis.GateOption {
	var opts []crisis.GateOption
	if c.Hotline.Number != "" {
		label := c.Hotline.Label
		if label == "" {
			label = c.Hotline.Number
		}
		opts = append(opts, crisis.WithHotline(crisis.Hotline{Number: c.Hotline.Number, Label: label}))
	}
	if len(c.FallbackContacts) > 0 {
		opts = append(opts, crisis.WithFallbackContacts(c.FallbackContacts))
	}
	return opts
}
