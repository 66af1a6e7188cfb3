package domain

import "errors"

// Error kinds for the orchestration boundary. Adapters wrap provider failures
// with %w so callers can classify them via errors.Is; none of them crash the
// session, each is converted into a recoverable display-state error.
var (
	// ErrTelemetryFetch marks a failed or malformed numeric telemetry fetch.
	// The fetch is all-or-nothing: one bad sub-fetch fails the whole cycle.
	ErrTelemetryFetch = errors.New("telemetry fetch failed")

	// ErrLocationResolution marks an unresolvable or malformed geocoding result.
	ErrLocationResolution = errors.New("location not found")

	// ErrGeolocationUnavailable marks a denied or timed-out device position fix.
	ErrGeolocationUnavailable = errors.New("positioning unavailable")

	// ErrSynthesis marks an unreachable provider or schema-violating narrative
	// response. A full-path cycle that hits this keeps the previous state
	// entirely; numeric fields are not updated either.
	ErrSynthesis = errors.New("synthesis failed")

	// ErrCredentialMissing is raised eagerly before the network call when no
	// provider API key is configured. It is wrapped into the operation's kind
	// (ErrSynthesis or ErrLocationResolution) at the call boundary.
	ErrCredentialMissing = errors.New("provider API key missing")
)
