package emotion

import "strings"

// rule pairs a keyword set with the context it produces. Rules are evaluated
// in slice order and the first rule with any matching keyword wins,
// regardless of how many keywords later rules would match.
type rule struct {
	result   Context
	keywords []string
}

// rules is the ordered keyword table. Matching is a case-insensitive
// substring test, so "harm" also matches inside "pharmacy".
var rules = []rule{
	{Crisis, []string{"crisis", "emergency", "help", "suicide", "harm", "danger", "panic", "overwhelmed"}},
	{Calming, []string{"anxious", "stressed", "worried", "nervous", "upset", "angry", "frustrated"}},
	{Comforting, []string{"sad", "lonely", "hurt", "pain", "loss", "grief", "cry", "depressed"}},
	{Energizing, []string{"goal", "motivation", "achieve", "success", "progress", "excited", "happy"}},
}

// priorEmotions maps a previously detected emotion label to a context. It is
// consulted only when no keyword rule matched the message text.
var priorEmotions = map[string]Context{
	"sad":       Comforting,
	"grief":     Comforting,
	"lonely":    Comforting,
	"anxious":   Calming,
	"stressed":  Calming,
	"angry":     Calming,
	"happy":     Energizing,
	"excited":   Energizing,
	"motivated": Energizing,
	"crisis":    Crisis,
	"panic":     Crisis,
}

// Source tells which classification step produced a [Match].
type Source string

const (
	SourceKeyword      Source = "keyword"
	SourcePriorEmotion Source = "prior_emotion"
	SourceDefault      Source = "default"
)

// Match describes how a message was classified.
type Match struct {
	Context Context `json:"context"`
	Source  Source  `json:"source"`

	// Keyword is the matched keyword for SourceKeyword, or the normalised
	// prior emotion label for SourcePriorEmotion.
	Keyword string `json:"keyword,omitempty"`
}

// Classify returns the emotional context for message, optionally informed by
// a previously detected emotion label. See [Explain] for the rule order.
func Classify(message, priorEmotion string) Context {
	return Explain(message, priorEmotion).Context
}

// Explain classifies message and reports which step decided the result:
//
//  1. crisis keywords
//  2. calming keywords
//  3. comforting keywords
//  4. energizing keywords
//  5. the prior emotion table, when priorEmotion is non-empty and known
//  6. [Supportive]
//
// Empty or whitespace-only messages skip straight to step 5.
func Explain(message, priorEmotion string) Match {
	text := strings.ToLower(message)
	if strings.TrimSpace(text) != "" {
		for _, r := range rules {
			for _, kw := range r.keywords {
				if strings.Contains(text, kw) {
					return Match{Context: r.result, Source: SourceKeyword, Keyword: kw}
				}
			}
		}
	}

	if label := strings.ToLower(strings.TrimSpace(priorEmotion)); label != "" {
		if c, ok := priorEmotions[label]; ok {
			return Match{Context: c, Source: SourcePriorEmotion, Keyword: label}
		}
	}

	return Match{Context: Supportive, Source: SourceDefault}
}
