package learning

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is absent from the
	// active set. A session that already ended and one that never existed are
	// indistinguishable by design.
	ErrSessionNotFound = errors.New("learning session not found")

	// ErrInvalidConfiguration is returned when session-start configuration
	// fails validation, before any state is allocated.
	ErrInvalidConfiguration = errors.New("invalid session configuration")

	// ErrUpstreamAnalysis indicates the external analyzer could not be
	// reached or returned unusable output after the retry budget. Turn
	// processing absorbs this with a degraded default analysis; report
	// generation surfaces it.
	ErrUpstreamAnalysis = errors.New("upstream analysis failed")

	// ErrInsufficientData indicates an analytics query has fewer data points
	// than required. Handlers translate it to a structured no-data result.
	ErrInsufficientData = errors.New("insufficient data")
)
