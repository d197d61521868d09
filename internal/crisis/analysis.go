// Package crisis turns a message-level risk analysis into a decision about
// which crisis-support blocks the client should render.
//
// The [Gate] is stateless: each [Analysis] is judged on its own and no risk
// history is kept. Producing the analysis is the job of an [Analyzer].
package crisis

import (
	"fmt"
	"strings"
)

// RiskLevel is the ordinal severity of a risk analysis.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// IsValid reports whether r is a recognised risk level.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskNone, RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// ParseRiskLevel normalises s into a [RiskLevel].
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("crisis: unknown risk level %q", s)
	}
	return r, nil
}

// Analysis is the output of a message risk analysis. Field names on the
// wire are camelCase.
type Analysis struct {
	RiskLevel         RiskLevel `json:"riskLevel"`
	Indicators        []string  `json:"indicators"`
	SupportMessage    string    `json:"supportMessage"`
	ImmediateActions  []string  `json:"immediateActions"`
	EmergencyContacts []string  `json:"emergencyContacts"`
	ConfidenceScore   float64   `json:"confidenceScore"`
	CheckInScheduled  bool      `json:"checkInScheduled"`
}
