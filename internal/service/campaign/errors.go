package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidPhaseTag   = errors.New("invalid phase tag")
)
