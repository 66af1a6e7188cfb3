package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	alert := domain.Alert{
		ID:          "a1",
		Title:       "Dust storm",
		Description: "dense dust approaching",
		Severity:    domain.SeverityCritical,
		Type:        "dust",
		Timestamp:   "2026-03-14 09:00",
	}

	msg, err := serializeToMessage("Riyadh", alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("a1"), msg.Key)

	var decoded escalation
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Riyadh", decoded.Location)
	assert.Equal(t, alert, decoded.Alert)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "CRITICAL", headers["severity"])
	assert.Equal(t, "dust", headers["hazard_type"])
}
