// Package emotion classifies chat messages into coarse emotional contexts.
//
// An emotional context is not a sentiment score. It is one of a small, closed
// set of buckets used to bias how expressive or steady a synthesised voice
// should sound when replying to the user.
package emotion

import "strings"

// Context is the emotional bucket a message was classified into.
type Context string

const (
	Crisis     Context = "crisis"
	Calming    Context = "calming"
	Comforting Context = "comforting"
	Energizing Context = "energizing"
	Supportive Context = "supportive"
	Neutral    Context = "neutral"
)

// All lists every context in classification priority order, with Neutral last.
var All = []Context{Crisis, Calming, Comforting, Energizing, Supportive, Neutral}

// IsValid reports whether c is a recognised context.
func (c Context) IsValid() bool {
	switch c {
	case Crisis, Calming, Comforting, Energizing, Supportive, Neutral:
		return true
	}
	return false
}

// String returns the wire name of the context.
func (c Context) String() string {
	return string(c)
}

// ParseContext converts s (case-insensitive, surrounding whitespace ignored)
// into a [Context]. The second return value is false for unknown names.
func ParseContext(s string) (Context, bool) {
	c := Context(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", false
	}
	return c, true
}
