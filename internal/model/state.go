package model

// Phase is the orchestrator's position in the submit cycle.
type Phase string

const (
	PhaseIdle           Phase = "Idle"
	PhaseSubmitting     Phase = "Submitting"
	PhaseAwaitingResult Phase = "AwaitingResult"
	PhaseSucceeded      Phase = "Succeeded"
	PhaseFailed         Phase = "Failed"
)

// String returns the string representation of Phase
func (p Phase) String() string {
	return string(p)
}

// InFlight returns true while a request is being built or is outstanding.
func (p Phase) InFlight() bool {
	return p == PhaseSubmitting || p == PhaseAwaitingResult
}

// Resolved returns true once the last request has an outcome.
func (p Phase) Resolved() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// ProcessingState is the orchestrator's live state. ResultURL, PaletteName and
// Mode are set on success; Message on failure.
type ProcessingState struct {
	Phase       Phase
	Seq         uint64
	ResultURL   string
	PaletteName string
	Mode        string
	Message     string
}
