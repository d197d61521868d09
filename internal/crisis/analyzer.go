package crisis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/solace/internal/observe"
	"github.com/MrWong99/solace/pkg/provider/llm"
)

// ErrMalformedAnalysis is returned when the model reply cannot be decoded
// into an [Analysis].
var ErrMalformedAnalysis = errors.New("crisis: malformed analysis")

// Analyzer produces a risk [Analysis] for a single user message.
type Analyzer interface {
	Analyze(ctx context.Context, message string) (Analysis, error)
}

const defaultTemperature = 0.1

const systemPrompt = `You are a safety reviewer for a mental wellness journaling app.

Read the user's message and assess the risk that they are in crisis (self-harm,
suicidal ideation, harm to others, acute distress).

Rules:
- Judge only this message. Do not speculate beyond what it says.
- Prefer "none" or "low" for ordinary sadness, stress or frustration.
- Use "critical" only for explicit intent, plan or imminent danger.
- supportMessage must be warm, brief and written directly to the user.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "riskLevel": "none" | "low" | "medium" | "high" | "critical",
  "indicators": ["<short phrase>"],
  "supportMessage": "<one or two sentences>",
  "immediateActions": ["<short suggestion>"],
  "emergencyContacts": ["<name: how to reach>"],
  "confidenceScore": <0.0-1.0>,
  "checkInScheduled": <true|false>
}`

// LLMAnalyzer asks an [llm.Provider] for a structured risk analysis. It is
// safe for concurrent use.
type LLMAnalyzer struct {
	llm         llm.Provider
	temperature float64
}

// AnalyzerOption configures an [LLMAnalyzer].
type AnalyzerOption func(*LLMAnalyzer)

// WithTemperature sets the sampling temperature. Default: 0.1.
func WithTemperature(temp float64) AnalyzerOption {
	return func(a *LLMAnalyzer) {
		a.temperature = temp
	}
}

// NewLLMAnalyzer returns an analyzer backed by provider.
func NewLLMAnalyzer(provider llm.Provider, opts ...AnalyzerOption) *LLMAnalyzer {
	a := &LLMAnalyzer{llm: provider, temperature: defaultTemperature}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze implements [Analyzer]. A blank message yields a "none" analysis
// without calling the model.
func (a *LLMAnalyzer) Analyze(ctx context.Context, message string) (_ Analysis, err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Analysis{RiskLevel: RiskNone, ConfidenceScore: 1}, nil
	}

	ctx, span := observe.StartSpan(ctx, "crisis.analyze")
	defer func() { observe.EndSpan(span, err) }()

	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Temperature:  a.temperature,
		Messages:     []llm.Message{{Role: "user", Content: message}},
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("crisis: analyze: %w", err)
	}
	if resp == nil {
		return Analysis{}, fmt.Errorf("%w: empty reply", ErrMalformedAnalysis)
	}
	analysis, err := ParseAnalysis(resp.Content)
	if err != nil {
		return Analysis{}, err
	}
	span.SetAttributes(attribute.String("risk_level", string(analysis.RiskLevel)))
	return analysis, nil
}

// ParseAnalysis decodes a model reply into an [Analysis]. Markdown code
// fences around the JSON are tolerated. The risk level is lower-cased and
// the confidence score is clamped to [0, 1]. A risk level outside the known
// set is kept as-is so [TierFor] can still surface help for it.
func ParseAnalysis(content string) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(stripMarkdown(content)), &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if strings.TrimSpace(string(a.RiskLevel)) == "" {
		return Analysis{}, fmt.Errorf("%w: missing riskLevel", ErrMalformedAnalysis)
	}

	if r, err := ParseRiskLevel(string(a.RiskLevel)); err == nil {
		a.RiskLevel = r
	} else {
		a.RiskLevel = RiskLevel(strings.ToLower(strings.TrimSpace(string(a.RiskLevel))))
	}

	switch {
	case math.IsNaN(a.ConfidenceScore), a.ConfidenceScore < 0:
		a.ConfidenceScore = 0
	case a.ConfidenceScore > 1:
		a.ConfidenceScore = 1
	}
	return a, nil
}

// stripMarkdown removes optional ```json fences some models wrap around
// their output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
