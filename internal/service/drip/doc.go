// Package drip runs the multi-stage outreach sequence.
//
// Each run selects a bounded page of due recipients, claims each row with
// a conditional write before sending so overlapping runs never double
// send, renders the (persona, stage) template and hands it to the mail
// sender. Send failures are terminal for the recipient: no stage is ever
// retried automatically.
package drip
