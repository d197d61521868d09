package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/solace/internal/crisis"
	"github.com/MrWong99/solace/internal/emotion"
	"github.com/MrWong99/solace/internal/voice"
)

// ValidProviderNames lists known provider names per provider kind. [Validate]
// warns about names outside these lists.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts": {"elevenlabs"},
}

// suggestThreshold is the Jaro-Winkler similarity above which a known name
// is offered as a correction.
const suggestThreshold = 0.8

// Load reads the YAML configuration file at path and returns a validated
// [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg is coherent. It returns every problem found,
// joined with [errors.Join]. Voice table problems wrap
// [voice.ErrConfiguration].
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateVoice(cfg.Voice)...)
	errs = append(errs, validateCrisis(cfg.Crisis)...)
	errs = append(errs, validateCheckIn(cfg.CheckIn)...)

	return errors.Join(errs...)
}

func validateProviders(p ProvidersConfig) []error {
	var errs []error
	check := func(kind, field string, e ProviderEntry) {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("providers.%s.name is required", field))
			return
		}
		validateProviderName(kind, e.Name)
	}

	if p.LLM.Name == "" {
		if len(p.LLMFallbacks) > 0 {
			errs = append(errs, errors.New("providers.llm_fallbacks requires providers.llm"))
		}
		slog.Warn("no LLM provider configured; crisis assessment is disabled")
	} else {
		check("llm", "llm", p.LLM)
	}
	for i, e := range p.LLMFallbacks {
		check("llm", fmt.Sprintf("llm_fallbacks[%d]", i), e)
	}

	if p.TTS.Name == "" {
		if len(p.TTSFallbacks) > 0 {
			errs = append(errs, errors.New("providers.tts_fallbacks requires providers.tts"))
		}
		slog.Warn("no TTS provider configured; speech synthesis is disabled")
	} else {
		check("tts", "tts", p.TTS)
	}
	for i, e := range p.TTSFallbacks {
		check("tts", fmt.Sprintf("tts_fallbacks[%d]", i), e)
	}
	return errs
}

func validateVoice(v VoiceConfig) []error {
	var errs []error

	if v.DefaultIntensity < 0 || v.DefaultIntensity > 1 {
		errs = append(errs, fmt.Errorf("voice.default_intensity %.2f is out of range [0, 1]", v.DefaultIntensity))
	}

	catalog, err := voice.NewCatalog(v.Identities()...)
	if err != nil {
		// Everything below needs a catalog.
		return append(errs, fmt.Errorf("voice.catalog: %w", err))
	}
	names := catalog.Names()

	for _, mood := range sortedKeys(v.Moods) {
		target := v.Moods[mood]
		if _, ok := catalog.Lookup(target); !ok {
			errs = append(errs, fmt.Errorf("voice.moods[%s]: %w", mood,
				&voice.ConfigError{Voice: target, Reason: "not in catalog" + suggestion(target, names)}))
		}
	}

	contexts := make([]string, len(emotion.All))
	for i, c := range emotion.All {
		contexts[i] = c.String()
	}
	for _, name := range sortedKeys(v.Profiles) {
		p := v.Profiles[name]
		prefix := fmt.Sprintf("voice.profiles[%s]", name)
		if _, ok := catalog.Lookup(name); !ok {
			errs = append(errs, fmt.Errorf("%s: %w", prefix,
				&voice.ConfigError{Voice: name, Reason: "not in catalog" + suggestion(name, names)}))
		}
		base := voice.Settings{Stability: p.Base.Stability, SimilarityBoost: p.Base.SimilarityBoost, Style: p.Base.Style}
		if err := voice.ValidateSettings(base); err != nil {
			errs = append(errs, fmt.Errorf("%s.base: %w", prefix, err))
		}
		for _, key := range sortedKeys(p.Adjustments) {
			a := p.Adjustments[key]
			if _, ok := emotion.ParseContext(key); !ok {
				errs = append(errs, fmt.Errorf("%s.adjustments: unknown context %q%s", prefix, key, suggestion(key, contexts)))
				continue
			}
			if err := voice.ValidateSettings(voice.Settings{Stability: a.Stability, Style: a.Style}); err != nil {
				errs = append(errs, fmt.Errorf("%s.adjustments[%s]: %w", prefix, key, err))
			}
		}
	}

	if _, err := voice.NewSynthesizer(catalog, v.SynthesisProfiles()); err != nil {
		errs = append(errs, fmt.Errorf("voice.profiles: %w", err))
	}
	return errs
}

func validateCrisis(c CrisisConfig) []error {
	var errs []error
	if c.Hotline.Label != "" && c.Hotline.Number == "" {
		errs = append(errs, errors.New("crisis.hotline.number is required when a label is set"))
	}
	if c.AnalyzerTemperature < 0 || c.AnalyzerTemperature > 2 {
		errs = append(errs, fmt.Errorf("crisis.analyzer_temperature %.2f is out of range [0, 2]", c.AnalyzerTemperature))
	}
	return errs
}

func validateCheckIn(c CheckInConfig) []error {
	var errs []error
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("checkin.sweep_interval %s must not be negative", c.SweepInterval))
	}
	levels := []string{string(crisis.RiskMedium), string(crisis.RiskHigh), string(crisis.RiskCritical)}
	for _, key := range sortedKeys(c.Delays) {
		if !slices.Contains(levels, strings.ToLower(key)) {
			errs = append(errs, fmt.Errorf("checkin.delays: unknown risk level %q%s", key, suggestion(key, levels)))
			continue
		}
		if c.Delays[key] <= 0 {
			errs = append(errs, fmt.Errorf("checkin.delays[%s] must be positive", key))
		}
	}
	if c.PostgresDSN != "" && c.File != "" {
		slog.Warn("checkin.postgres_dsn and checkin.file are both set; using postgres")
	}
	return errs
}

// validateProviderName logs a warning if name is not a known provider of kind.
func validateProviderName(kind, name string) {
	known, ok := ValidProviderNames[kind]
	if !ok || slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
		"suggestion", strings.TrimPrefix(suggestion(name, known), "; did you mean "),
	)
}

// suggestion returns "; did you mean X?" for the known name closest to s, or
// "" when nothing is close enough.
func suggestion(s string, known []string) string {
	best, bestScore := "", 0.0
	for _, k := range known {
		score := matchr.JaroWinkler(strings.ToLower(s), strings.ToLower(k), false)
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return fmt.Sprintf("; did you mean %q?", best)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
