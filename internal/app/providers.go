package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/solace/internal/config"
	"github.com/MrWong99/solace/internal/observe"
	"github.com/MrWong99/solace/internal/resilience"
	"github.com/MrWong99/solace/pkg/provider/llm"
	"github.com/MrWong99/solace/pkg/provider/llm/anyllm"
	"github.com/MrWong99/solace/pkg/provider/llm/openai"
	"github.com/MrWong99/solace/pkg/provider/tts"
	"github.com/MrWong99/solace/pkg/provider/tts/elevenlabs"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated via [BuildProviders].
type Providers struct {
	LLM llm.Provider
	TTS tts.Provider

	// AudioFormat is the primary TTS provider's output encoding, if known.
	AudioFormat string
}

// RegisterBuiltinProviders wires all built-in provider factories into reg.
func RegisterBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────

	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining hosted backends share the same shape: optional APIKey and
	// optional BaseURL.
	for _, name := range []string{"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"} {
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(name, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	slog.Debug("registered providers", "llm", reg.LLMNames(), "tts", reg.TTSNames())
}

// BuildProviders instantiates the providers named in cfg and wraps each kind
// in a failover group with its configured fallbacks. Provider failures are
// counted in m.
func BuildProviders(cfg *config.Config, reg *config.Registry, m *observe.Metrics) (*Providers, error) {
	if m == nil {
		m = observe.DefaultMetrics()
	}
	ps := &Providers{}
	fallbackCfg := func(kind string) resilience.FallbackConfig {
		return resilience.FallbackConfig{
			OnError: func(provider string, err error) {
				m.RecordProviderError(context.Background(), provider, kind)
				slog.Warn("provider call failed", "kind", kind, "provider", provider, "err", err)
			},
		}
	}

	if entry := cfg.Providers.LLM; entry.Name != "" {
		primary, err := create(reg.CreateLLM, "llm", entry)
		if err != nil {
			return nil, err
		}
		if primary != nil {
			group := resilience.NewLLMFallback(primary, entry.Name, fallbackCfg("llm"))
			for _, fb := range cfg.Providers.LLMFallbacks {
				p, err := create(reg.CreateLLM, "llm", fb)
				if err != nil {
					return nil, err
				}
				if p != nil {
					group.AddFallback(fb.Name, p)
				}
			}
			ps.LLM = group
		}
	}

	if entry := cfg.Providers.TTS; entry.Name != "" {
		primary, err := create(reg.CreateTTS, "tts", entry)
		if err != nil {
			return nil, err
		}
		if primary != nil {
			if f, ok := primary.(interface{ OutputFormat() string }); ok {
				ps.AudioFormat = f.OutputFormat()
			}
			group := resilience.NewTTSFallback(primary, entry.Name, fallbackCfg("tts"))
			for _, fb := range cfg.Providers.TTSFallbacks {
				p, err := create(reg.CreateTTS, "tts", fb)
				if err != nil {
					return nil, err
				}
				if p != nil {
					group.AddFallback(fb.Name, p)
				}
			}
			ps.TTS = group
		}
	}

	return ps, nil
}

// create builds one provider. An unregistered name is logged and yields a
// nil provider so the rest of the service can still start.
func create[P any](fn func(config.ProviderEntry) (P, error), kind string, entry config.ProviderEntry) (P, error) {
	p, err := fn(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("provider not available, skipping", "kind", kind, "name", entry.Name)
		var zero P
		return zero, nil
	}
	if err != nil {
		var zero P
		return zero, fmt.Errorf("app: create %s provider %q: %w", kind, entry.Name, err)
	}
	slog.Info("provider created", "kind", kind, "name", entry.Name, "model", entry.Model)
	return p, nil
}

// optString extracts a string value from a provider Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}
