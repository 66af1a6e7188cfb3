package domain

import (
	"encoding/json"
	"fmt"
)

// Severity is the ordinal hazard rank derived from the active alert set.
// The zero value is SeverityNone, which sits below LOW.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityNone:     "NONE",
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity converts a provider severity label to a Severity. Only the
// four alert levels are valid wire values; "NONE" is derived, never received.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return SeverityNone, fmt.Errorf("invalid severity %q", s)
	}
}

// MarshalJSON encodes the severity as its wire label.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a wire label, rejecting anything outside the four
// alert levels.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseSeverity(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// HighestSeverity reduces an alert list to the highest severity present.
// An empty or nil list is SeverityNone, never LOW.
func HighestSeverity(alerts []Alert) Severity {
	highest := SeverityNone
	for _, a := range alerts {
		if a.Severity > highest {
			highest = a.Severity
		}
	}
	return highest
}
