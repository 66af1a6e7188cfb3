package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSynthesisJSON = `{
	"condition": "dust haze",
	"location": "Riyadh",
	"riskAnalysis": "heat and particulates compound each other",
	"infrastructureImpact": "reduced visibility on highways",
	"protocols": ["limit outdoor exposure", "secure loose structures"],
	"forecast": [{"day": "Sat", "temp": "36°", "condition": "dusty"}],
	"alerts": [{
		"id": "alert-1",
		"title": "Dust storm",
		"description": "Dense dust approaching from the northwest",
		"severity": "HIGH",
		"type": "dust",
		"timestamp": "2026-03-14 09:00"
	}]
}`

func TestParseSynthesisReport(t *testing.T) {
	t.Run("valid report", func(t *testing.T) {
		report, err := ParseSynthesisReport([]byte(validSynthesisJSON))
		require.NoError(t, err)

		assert.Equal(t, "dust haze", report.Condition)
		assert.Equal(t, "Riyadh", report.Location)
		assert.Len(t, report.Protocols, 2)
		require.Len(t, report.Alerts, 1)
		assert.Equal(t, "alert-1", report.Alerts[0].ID)
		assert.Equal(t, SeverityHigh, report.Alerts[0].Severity)
		assert.Equal(t, "2026-03-14 09:00", report.Alerts[0].Timestamp)
	})

	t.Run("empty alert list is valid", func(t *testing.T) {
		data := []byte(`{"condition":"clear","location":"Riyadh","riskAnalysis":"low risk","infrastructureImpact":"none","protocols":[],"forecast":[],"alerts":[]}`)
		report, err := ParseSynthesisReport(data)
		require.NoError(t, err)
		assert.Empty(t, report.Alerts)
	})

	t.Run("missing required field", func(t *testing.T) {
		data := []byte(`{"condition":"clear","location":"Riyadh","riskAnalysis":"low","protocols":[],"forecast":[],"alerts":[]}`)
		_, err := ParseSynthesisReport(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "infrastructureImpact")
	})

	t.Run("unknown severity", func(t *testing.T) {
		data := []byte(`{"condition":"c","location":"l","riskAnalysis":"r","infrastructureImpact":"i","protocols":[],"forecast":[],
			"alerts":[{"id":"a1","title":"t","description":"d","severity":"EXTREME","type":"x","timestamp":"2026-03-14 09:00"}]}`)
		_, err := ParseSynthesisReport(data)
		assert.Error(t, err)
	})

	t.Run("malformed alert timestamp", func(t *testing.T) {
		data := []byte(`{"condition":"c","location":"l","riskAnalysis":"r","infrastructureImpact":"i","protocols":[],"forecast":[],
			"alerts":[{"id":"a1","title":"t","description":"d","severity":"LOW","type":"x","timestamp":"14/03/2026 9am"}]}`)
		_, err := ParseSynthesisReport(data)
		assert.Error(t, err)
	})

	t.Run("alert missing id", func(t *testing.T) {
		data := []byte(`{"condition":"c","location":"l","riskAnalysis":"r","infrastructureImpact":"i","protocols":[],"forecast":[],
			"alerts":[{"title":"t","description":"d","severity":"LOW","type":"x","timestamp":"2026-03-14 09:00"}]}`)
		_, err := ParseSynthesisReport(data)
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseSynthesisReport([]byte("{not json"))
		assert.Error(t, err)
	})
}

func TestParseResolvedLocation(t *testing.T) {
	t.Run("valid response", func(t *testing.T) {
		loc, err := ParseResolvedLocation([]byte(`{"lat": 24.7, "lng": 46.7, "name": "Riyadh"}`))
		require.NoError(t, err)
		assert.Equal(t, 24.7, loc.Coord.Lat)
		assert.Equal(t, 46.7, loc.Coord.Lon)
		assert.Equal(t, "Riyadh", loc.Name)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := ParseResolvedLocation([]byte(`{"lat": 24.7, "lng": 46.7}`))
		assert.Error(t, err)
	})

	t.Run("missing coordinate half", func(t *testing.T) {
		_, err := ParseResolvedLocation([]byte(`{"lat": 24.7, "name": "Riyadh"}`))
		assert.Error(t, err)
	})

	t.Run("out of range latitude", func(t *testing.T) {
		_, err := ParseResolvedLocation([]byte(`{"lat": 124.7, "lng": 46.7, "name": "nowhere"}`))
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseResolvedLocation([]byte("null response"))
		assert.Error(t, err)
	})
}
