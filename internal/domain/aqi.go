package domain

// AQIClass is the deterministic air quality classification derived from the
// numeric US AQI. It is computed locally, never taken from the LLM.
type AQIClass struct {
	Value int    `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// ClassifyAQI maps a US AQI value to its label and severity color using fixed
// breakpoints. Boundaries are strict: 150 is "unhealthy", 151 is "very
// unhealthy"; 50 is "good", 51 is "moderate".
func ClassifyAQI(aqi int) AQIClass {
	switch {
	case aqi > 150:
		return AQIClass{Value: aqi, Label: "very unhealthy", Color: "#ef4444"}
	case aqi > 100:
		return AQIClass{Value: aqi, Label: "unhealthy", Color: "#f97316"}
	case aqi > 50:
		return AQIClass{Value: aqi, Label: "moderate", Color: "#eab308"}
	default:
		return AQIClass{Value: aqi, Label: "good", Color: "#22c55e"}
	}
}
