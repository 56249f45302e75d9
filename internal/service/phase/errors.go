package phase

import "errors"

// Sentinel errors for the phase guard.
var (
	ErrCountUnavailable = errors.New("member count unavailable")
)
