// Package suppression implements the global suppression registry.
//
// This is the single source of truth for whether an email address may be
// added to any campaign. Entries flow in from ESP webhooks, the tracking
// endpoints and the unsubscribe page, and are checked in bulk at ingest.
// Entries are never removed automatically.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package suppression
