// Package domain holds the value types shared by the outreach services:
// campaigns and their lifecycle, recipients and drip stages, suppression
// entries, engagement events and the capacity phase.
//
// Nothing here touches the database or HTTP. Helpers such as PhaseFor and
// ParseEventType live next to the types they produce so every layer agrees
// on what a valid value is.
package domain
