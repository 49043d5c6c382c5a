package backend

import "fmt"

// State is where a backend is in its probe lifecycle.
type State int

// Uninitialized -> Probing -> Ready | Disabled. Disabled is a steady state; the next probe may
// bring the backend back to Ready.
const (
	StateUninitialized State = iota
	StateProbing
	StateReady
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateProbing:
		return "probing"
	case StateReady:
		return "ready"
	case StateDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ProbeResult is the outcome of ProbeAndLoad. Reason is set when the backend is disabled.
type ProbeResult struct {
	State  State
	Reason error
}

// ReadyResult reports a backend that holds all of its channels.
func ReadyResult() ProbeResult {
	return ProbeResult{State: StateReady}
}

// DisabledResult reports a backend that could not acquire its channels.
func DisabledResult(reason error) ProbeResult {
	return ProbeResult{State: StateDisabled, Reason: reason}
}

// IsReady reports whether the probe left the backend ready.
func (r ProbeResult) IsReady() bool {
	return r.State == StateReady
}

func (r ProbeResult) String() string {
	if r.Reason != nil {
		return fmt.Sprintf("%s: %v", r.State, r.Reason)
	}
	return r.State.String()
}
