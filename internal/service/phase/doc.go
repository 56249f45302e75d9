// Package phase implements the phase guard: a single idempotent check that
// compares the number of founding-tier members against the configured cap
// and pauses or resumes founding-tagged campaigns accordingly.
//
// Each campaign write is conditional on its current status, so concurrent
// or repeated runs converge on the same end state and a second run in
// immediate succession reports no actions.
package phase
