// Package engagement records opens, clicks, bounces, drops, spam reports
// and unsubscribes against outreach recipients.
//
// The tracking pixel, the click redirect, the unsubscribe page and the
// signed ESP webhook all converge on RecordEvent. Every call appends an
// audit event; state changes are compare-and-set writes so at-least-once
// delivery never double counts, and negative terminal events always win
// over positive ones.
package engagement
