// Package recipient implements bulk recipient ingest for outreach campaigns.
//
// Rows are normalized and validated, de-duplicated within the payload,
// checked against the campaign's existing recipients and the global
// suppression registry, then inserted as queued at sequence stage 0.
// Re-running an overlapping upload never duplicates a (campaign, email)
// pair: the insert itself is conflict-guarded.
package recipient
