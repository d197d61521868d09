// Package voice holds the voice catalog, the mood-to-voice selector, and the
// parameter synthesizer that turns a voice plus an emotional context into
// concrete text-to-speech settings.
//
// Everything in this package is immutable after construction and safe for
// concurrent use without locking.
package voice

import (
	"fmt"
	"slices"
	"strings"
)

// Gender of a synthesised voice.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// IsValid reports whether g is a recognised gender.
func (g Gender) IsValid() bool {
	return g == Male || g == Female
}

// Identity is one speaking voice offered by the TTS vendor.
type Identity struct {
	// ID is the opaque provider key for this voice.
	ID string `json:"id"`

	// Name is the display name users refer to (e.g. "Hope").
	Name string `json:"name"`

	Gender Gender `json:"gender"`

	// Tags are free-form descriptors such as "warm" or "soothing".
	Tags []string `json:"tags,omitempty"`

	// Default marks the fallback voice. Exactly one catalog entry has it set.
	Default bool `json:"default,omitempty"`
}

// HasTag reports whether the identity carries tag (case-insensitive).
func (id Identity) HasTag(tag string) bool {
	return slices.ContainsFunc(id.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// Catalog is an immutable registry of voice identities.
type Catalog struct {
	voices []Identity
	byName map[string]int
	deflt  int
}

// NewCatalog validates identities and builds a [Catalog]. It returns a
// [*ConfigError] when no entry or more than one entry is flagged default,
// when a name is duplicated, or when an entry lacks a name or ID.
func NewCatalog(identities ...Identity) (*Catalog, error) {
	c := &Catalog{
		voices: make([]Identity, 0, len(identities)),
		byName: make(map[string]int, len(identities)),
		deflt:  -1,
	}

	var defaults []string
	for i, id := range identities {
		if id.Name == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("catalog entry %d has no name", i)}
		}
		if id.ID == "" {
			return nil, &ConfigError{Voice: id.Name, Reason: "provider voice id is empty"}
		}
		if id.Gender != "" && !id.Gender.IsValid() {
			return nil, &ConfigError{Voice: id.Name, Reason: fmt.Sprintf("gender %q is invalid; valid values: male, female", id.Gender)}
		}
		key := strings.ToLower(id.Name)
		if _, dup := c.byName[key]; dup {
			return nil, &ConfigError{Voice: id.Name, Reason: "duplicate voice name"}
		}

		id.Tags = slices.Clone(id.Tags)
		c.byName[key] = len(c.voices)
		if id.Default {
			defaults = append(defaults, id.Name)
			c.deflt = len(c.voices)
		}
		c.voices = append(c.voices, id)
	}

	switch len(defaults) {
	case 0:
		return nil, &ConfigError{Reason: "no voice is flagged as default"}
	case 1:
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("%d voices are flagged as default (%s); exactly one is required",
			len(defaults), strings.Join(defaults, ", "))}
	}
	return c, nil
}

// Default returns the designated fallback voice.
func (c *Catalog) Default() Identity {
	return c.voices[c.deflt]
}

// Lookup finds a voice by display name, ignoring case.
func (c *Catalog) Lookup(name string) (Identity, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Identity{}, false
	}
	return c.voices[i], true
}

// VoiceID returns the provider key of the named voice. Unknown names resolve
// to the default voice's key.
func (c *Catalog) VoiceID(name string) string {
	if id, ok := c.Lookup(name); ok {
		return id.ID
	}
	return c.Default().ID
}

// ByGender returns all voices of gender g in catalog order. The result is
// empty, never nil, when nothing matches.
func (c *Catalog) ByGender(g Gender) []Identity {
	out := []Identity{}
	for _, v := range c.voices {
		if v.Gender == g {
			out = append(out, v)
		}
	}
	return out
}

// All returns a copy of every voice in catalog order.
func (c *Catalog) All() []Identity {
	return slices.Clone(c.voices)
}

// Names returns the display names of every voice in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.voices))
	for i, v := range c.voices {
		names[i] = v.Name
	}
	return names
}

// findBySubstring returns the first voice, in catalog order, whose display
// name contains query (case-insensitive).
func (c *Catalog) findBySubstring(query string) (Identity, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Identity{}, false
	}
	for _, v := range c.voices {
		if strings.Contains(strings.ToLower(v.Name), q) {
			return v, true
		}
	}
	return Identity{}, false
}
