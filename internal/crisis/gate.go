package crisis

import (
	"slices"
	"strings"
)

// Tier is the UI treatment chosen for an analysis.
type Tier string

const (
	// TierSuppressed shows nothing.
	TierSuppressed Tier = "suppressed"

	// TierInformational shows the support message and a check-in notice.
	TierInformational Tier = "informational"

	// TierElevated adds emergency contacts, recommended actions, and a
	// professional-help action.
	TierElevated Tier = "elevated"

	// TierUrgent adds a direct-dial action to the crisis hotline.
	TierUrgent Tier = "urgent"
)

// ActionKind tells the client how to perform an [Action].
type ActionKind string

const (
	ActionProfessionalHelp ActionKind = "professional_help"
	ActionDial             ActionKind = "dial"
)

// Action is a button the client renders.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Label string     `json:"label"`

	// Number is the phone number to dial for [ActionDial].
	Number string `json:"number,omitempty"`
}

// Hotline is the crisis line offered for direct dialing.
type Hotline struct {
	Number string `json:"number"`
	Label  string `json:"label"`
}

// DefaultHotline is the US 988 Suicide & Crisis Lifeline.
var DefaultHotline = Hotline{Number: "988", Label: "988 Suicide & Crisis Lifeline"}

// Presentation tells the client which crisis blocks to render.
type Presentation struct {
	Tier      Tier      `json:"tier"`
	RiskLevel RiskLevel `json:"riskLevel"`
	ShowAlert bool      `json:"showAlert"`

	SupportMessage string `json:"supportMessage,omitempty"`
	ShowCheckIn    bool   `json:"showCheckIn"`
	CheckInNotice  string `json:"checkInNotice,omitempty"`

	ShowEmergencyContacts bool     `json:"showEmergencyContacts"`
	EmergencyContacts     []string `json:"emergencyContacts,omitempty"`
	ImmediateActions      []string `json:"immediateActions,omitempty"`

	Actions []Action `json:"actions,omitempty"`
}

// HasDirectDial reports whether the presentation includes a hotline dial
// action.
func (p Presentation) HasDirectDial() bool {
	return slices.ContainsFunc(p.Actions, func(a Action) bool { return a.Kind == ActionDial })
}

const (
	checkInNotice         = "We'll check in with you soon to see how you're doing."
	professionalHelpLabel = "Get Professional Help"
)

// Gate maps analyses to presentations.
type Gate struct {
	hotline Hotline

	// fallbackContacts are shown when an elevated analysis arrives without
	// any emergency contacts of its own.
	fallbackContacts []string
}

// GateOption configures a [Gate].
type GateOption func(*Gate)

// WithHotline sets the crisis line used for the direct-dial action.
func WithHotline(h Hotline) GateOption {
	return func(g *Gate) {
		if h.Number != "" {
			g.hotline = h
		}
	}
}

// WithFallbackContacts sets contacts shown when an elevated or urgent
// analysis carries none.
func WithFallbackContacts(contacts []string) GateOption {
	return func(g *Gate) {
		g.fallbackContacts = slices.Clone(contacts)
	}
}

// NewGate creates a [Gate] using [DefaultHotline] unless overridden.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{hotline: DefaultHotline}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Hotline returns the configured crisis line.
func (g *Gate) Hotline() Hotline {
	return g.hotline
}

// TierFor maps a risk level to a tier. Unknown levels map to [TierElevated]
// so an unrecognised analysis still surfaces help.
func TierFor(r RiskLevel) Tier {
	switch RiskLevel(strings.ToLower(string(r))) {
	case RiskNone, RiskLow:
		return TierSuppressed
	case RiskMedium:
		return TierInformational
	case RiskHigh:
		return TierElevated
	case RiskCritical:
		return TierUrgent
	default:
		return TierElevated
	}
}

// Present decides what the client shows for a. It has no side effects and
// keeps no state between calls.
func (g *Gate) Present(a Analysis) Presentation {
	tier := TierFor(a.RiskLevel)
	p := Presentation{Tier: tier}
	if tier == TierSuppressed {
		// none and low render identically.
		return p
	}

	p.RiskLevel = a.RiskLevel
	p.ShowAlert = true
	p.SupportMessage = a.SupportMessage
	if a.CheckInScheduled {
		p.ShowCheckIn = true
		p.CheckInNotice = checkInNotice
	}
	if tier == TierInformational {
		return p
	}

	p.ShowEmergencyContacts = true
	p.EmergencyContacts = slices.Clone(a.EmergencyContacts)
	if len(p.EmergencyContacts) == 0 {
		p.EmergencyContacts = slices.Clone(g.fallbackContacts)
	}
	p.ImmediateActions = slices.Clone(a.ImmediateActions)
	p.Actions = append(p.Actions, Action{Kind: ActionProfessionalHelp, Label: professionalHelpLabel})

	if tier == TierUrgent {
		p.Actions = append(p.Actions, Action{
			Kind:   ActionDial,
			Label:  "Call " + g.hotline.Label,
			Number: g.hotline.Number,
		})
	}
	return p
}
