// Package campaign implements operator-driven campaign lifecycle management.
//
// Campaigns move draft -> active -> paused/completed. Pauses record their
// cause so the phase guard only ever resumes the campaigns it paused
// itself. Every transition is a conditional write on the current status.
//
// Repository implementations live in repository/postgres/.
package campaign
