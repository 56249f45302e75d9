package domain

// Phase is the system-wide pricing/availability mode.
type Phase string

const (
	PhaseFounding Phase = "founding"
	PhaseStandard Phase = "standard"
)

// Capacity is the founders counter snapshot behind a phase decision.
type Capacity struct {
	Total     int `json:"total"`
	Cap       int `json:"cap"`
	Remaining int `json:"remaining"`
}

// PhaseFor is the pure phase function: standard once total reaches cap.
func PhaseFor(total, cap int) (Phase, Capacity) {
	remaining := cap - total
	if remaining < 0 {
		remaining = 0
	}
	c := Capacity{Total: total, Cap: cap, Remaining: remaining}
	if total >= cap {
		return PhaseStandard, c
	}
	return PhaseFounding, c
}
