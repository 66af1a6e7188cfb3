package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// alertTimestampLayout is the fixed civil format alert timestamps must carry.
const alertTimestampLayout = "2006-01-02 15:04"

// Wire shapes use pointers so missing fields are distinguishable from zero
// values. All provider JSON is validated here, at the boundary, and converted
// to a typed failure if invalid; nothing downstream trusts field presence.

type synthesisWire struct {
	Condition            *string        `json:"condition"`
	Location             *string        `json:"location"`
	RiskAnalysis         *string        `json:"riskAnalysis"`
	InfrastructureImpact *string        `json:"infrastructureImpact"`
	Protocols            *[]string      `json:"protocols"`
	Forecast             *[]ForecastDay `json:"forecast"`
	Alerts               *[]alertWire   `json:"alerts"`
}

type alertWire struct {
	ID          *string `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Severity    *string `json:"severity"`
	Type        *string `json:"type"`
	Timestamp   *string `json:"timestamp"`
}

// ParseSynthesisReport validates a synthesis provider response against the
// fixed shape {condition, location, riskAnalysis, infrastructureImpact,
// protocols[], forecast[], alerts[]}. Any missing field, unknown severity, or
// malformed alert timestamp is a hard failure; there are no partial reports.
func ParseSynthesisReport(data []byte) (SynthesisReport, error) {
	var wire synthesisWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return SynthesisReport{}, fmt.Errorf("parse synthesis response: %w", err)
	}

	switch {
	case wire.Condition == nil:
		return SynthesisReport{}, fmt.Errorf("synthesis response missing field %q", "condition")
	case wire.Location == nil:
		return SynthesisReport{}, fmt.Errorf("synthesis response missing field %q", "location")
	case wire.RiskAnalysis == nil:
		return SynthesisReport{}, fmt.Errorf("synthesis response missing field %q", "riskAnalysis")
	case wire.InfrastructureImpact == nil:
		return SynthesisReport{}, fmt.Errorf("synthesis response missing field %q", "infrastructureImpact")
	case wire.Protocols == nil:
		return SynthesisReport{}, fmt.Errorf("synthesis response missing field %q", "protocols")
	case wire.Forecast == nil:
		return SynthesisReport{}, fmt.Errorf("synthesis response missing field %q", "forecast")
	case wire.Alerts == nil:
		return SynthesisReport{}, fmt.Errorf("synthesis response missing field %q", "alerts")
	}

	alerts := make([]Alert, 0, len(*wire.Alerts))
	for i, aw := range *wire.Alerts {
		alert, err := validateAlert(aw)
		if err != nil {
			return SynthesisReport{}, fmt.Errorf("alert %d: %w", i, err)
		}
		alerts = append(alerts, alert)
	}

	return SynthesisReport{
		Condition:            *wire.Condition,
		Location:             *wire.Location,
		RiskAnalysis:         *wire.RiskAnalysis,
		InfrastructureImpact: *wire.InfrastructureImpact,
		Protocols:            *wire.Protocols,
		Forecast:             *wire.Forecast,
		Alerts:               alerts,
	}, nil
}

func validateAlert(aw alertWire) (Alert, error) {
	switch {
	case aw.ID == nil || *aw.ID == "":
		return Alert{}, fmt.Errorf("missing field %q", "id")
	case aw.Title == nil:
		return Alert{}, fmt.Errorf("missing field %q", "title")
	case aw.Description == nil:
		return Alert{}, fmt.Errorf("missing field %q", "description")
	case aw.Severity == nil:
		return Alert{}, fmt.Errorf("missing field %q", "severity")
	case aw.Type == nil:
		return Alert{}, fmt.Errorf("missing field %q", "type")
	case aw.Timestamp == nil:
		return Alert{}, fmt.Errorf("missing field %q", "timestamp")
	}

	severity, err := ParseSeverity(*aw.Severity)
	if err != nil {
		return Alert{}, err
	}
	if _, err := time.Parse(alertTimestampLayout, *aw.Timestamp); err != nil {
		return Alert{}, fmt.Errorf("timestamp %q is not %q", *aw.Timestamp, "YYYY-MM-DD HH:mm")
	}

	return Alert{
		ID:          *aw.ID,
		Title:       *aw.Title,
		Description: *aw.Description,
		Severity:    severity,
		Type:        *aw.Type,
		Timestamp:   *aw.Timestamp,
	}, nil
}

type resolvedLocationWire struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Name *string  `json:"name"`
}

// ParseResolvedLocation validates a structured-geocoding response against the
// fixed shape {lat, lng, name}. Coordinates outside WGS-84 bounds are schema
// violations.
func ParseResolvedLocation(data []byte) (ResolvedLocation, error) {
	var wire resolvedLocationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return ResolvedLocation{}, fmt.Errorf("parse geocoding response: %w", err)
	}

	switch {
	case wire.Lat == nil:
		return ResolvedLocation{}, fmt.Errorf("geocoding response missing field %q", "lat")
	case wire.Lng == nil:
		return ResolvedLocation{}, fmt.Errorf("geocoding response missing field %q", "lng")
	case wire.Name == nil || *wire.Name == "":
		return ResolvedLocation{}, fmt.Errorf("geocoding response missing field %q", "name")
	}

	if *wire.Lat < -90 || *wire.Lat > 90 {
		return ResolvedLocation{}, fmt.Errorf("latitude %v out of range", *wire.Lat)
	}
	if *wire.Lng < -180 || *wire.Lng > 180 {
		return ResolvedLocation{}, fmt.Errorf("longitude %v out of range", *wire.Lng)
	}

	return ResolvedLocation{
		Coord: Coordinate{Lat: *wire.Lat, Lon: *wire.Lng},
		Name:  *wire.Name,
	}, nil
}
