package models

import "errors"

// Engine error taxonomy. Callers classify failures with errors.Is; the
// API layer maps each sentinel to an HTTP status.
var (
	// ErrInvalidInput marks malformed or out-of-range simulation inputs.
	// Rejected before scoring, never scored.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable marks an unreachable scorer, weather, or
	// transport provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidProfile marks a profile write that violates an
	// invariant; the stored profile is unchanged.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrVerificationMismatch is the generic verification failure. It
	// deliberately does not distinguish wrong, expired, and absent
	// codes.
	ErrVerificationMismatch = errors.New("verification code mismatch")

	// ErrProfileNotFound marks a check against a user with no saved
	// profile, distinct from "evaluated, nothing crossed threshold".
	ErrProfileNotFound = errors.New("alert profile not found")

	// ErrNoMonitoredLocation marks a live-location check for a profile
	// with no monitored location configured.
	ErrNoMonitoredLocation = errors.New("no monitored location configured")
)
