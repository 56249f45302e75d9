package drip

import "errors"

// Sentinel errors for the drip scheduler.
var (
	ErrNoDelay = errors.New("no delay configured for stage")
)
