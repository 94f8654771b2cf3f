// Package dictator contains the orchestrator that turns hotkey toggle
// signals into record → transcribe → save → deliver cycles without
// blocking the signal path.
package dictator

import (
	"fmt"
	"time"
)

// State is the orchestrator's position in the dictation cycle.
// The only cycle is Ready → Recording → Transcribing → Ready.
type State int

const (
	// StateReady means no session exists; a toggle starts recording.
	StateReady State = iota
	// StateRecording means the microphone is capturing; a toggle stops it.
	StateRecording
	// StateTranscribing means a worker is processing the finished clip;
	// toggles are dropped until it completes.
	StateTranscribing
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is what the UI collaborator sees: the current state plus the
// elapsed capture time while recording.
type Status struct {
	State   State
	Elapsed time.Duration
}

// StatusSink receives state transitions and user-facing notifications.
// Calls are fire-and-forget; the orchestrator never depends on them
// succeeding.
type StatusSink interface {
	StatusChanged(Status)
	Notify(title, body string)
}
