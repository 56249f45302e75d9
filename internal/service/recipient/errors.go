package recipient

import (
	"errors"
	"fmt"
)

// Sentinel errors for the recipient service layer.
var (
	ErrValidation       = errors.New("validation failed")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrTooManyRows      = errors.New("too many rows")
	ErrNotFound         = errors.New("recipient not found")
)

// PartialError reports a storage failure after some rows were processed.
// Result holds the counts computed before the failure.
type PartialError struct {
	Result *IngestResult
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("ingest aborted after %d inserted: %v", e.Result.Inserted, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
