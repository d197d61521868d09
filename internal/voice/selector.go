package voice

import (
	"fmt"
	"maps"
	"strings"
)

// DefaultMoods is the built-in mood label → voice name table.
var DefaultMoods = map[string]string{
	"excited":       "Rachel",
	"happy":         "Rachel",
	"calm":          "James",
	"peaceful":      "James",
	"reflective":    "Bella",
	"contemplative": "Bella",
	"anxious":       "Carla",
	"stressed":      "Carla",
	"supportive":    "Hope",
	"professional":  "Adam",
	"confident":     "Adam",
	"clear":         "Adam",
	"neutral":       "Hope",
}

// Selector resolves a voice from a mood label and an optional explicit user
// preference.
type Selector struct {
	catalog *Catalog
	moods   map[string]Identity
}

// NewSelector builds a [Selector] over catalog using the mood → voice name
// table moods. Mood keys are matched case-insensitively. Every voice name in
// moods must exist in catalog, otherwise a [*ConfigError] is returned.
func NewSelector(catalog *Catalog, moods map[string]string) (*Selector, error) {
	s := &Selector{
		catalog: catalog,
		moods:   make(map[string]Identity, len(moods)),
	}
	for mood, name := range moods {
		id, ok := catalog.Lookup(name)
		if !ok {
			return nil, &ConfigError{Voice: name, Reason: fmt.Sprintf("mood %q maps to a voice that is not in the catalog", mood)}
		}
		s.moods[normalizeLabel(mood)] = id
	}
	return s, nil
}

// Reason says which rule picked a voice.
type Reason string

const (
	ReasonPreference Reason = "preference"
	ReasonMood       Reason = "mood"
	ReasonDefault    Reason = "default"
)

// Select returns the voice to speak with.
//
// A non-empty preference that is a case-insensitive substring of a catalog
// display name always wins. Otherwise mood is looked up in the mood table,
// and anything unmatched falls back to the catalog default. Select never
// fails.
func (s *Selector) Select(mood, preference string) Identity {
	id, _ := s.Choose(mood, preference)
	return id
}

// Choose is [Selector.Select] that also reports which rule matched.
func (s *Selector) Choose(mood, preference string) (Identity, Reason) {
	if id, ok := s.catalog.findBySubstring(preference); ok {
		return id, ReasonPreference
	}
	if id, ok := s.moods[normalizeLabel(mood)]; ok {
		return id, ReasonMood
	}
	return s.catalog.Default(), ReasonDefault
}

// Moods returns a copy of the mood table as mood → voice name.
func (s *Selector) Moods() map[string]string {
	out := make(map[string]string, len(s.moods))
	for mood, id := range s.moods {
		out[mood] = id.Name
	}
	return out
}

// MergeMoods returns DefaultMoods overlaid with overrides. Override keys are
// normalised the same way lookups are.
func MergeMoods(overrides map[string]string) map[string]string {
	out := maps.Clone(DefaultMoods)
	for mood, name := range overrides {
		out[normalizeLabel(mood)] = name
	}
	return out
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
