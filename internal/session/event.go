package session

import "github.com/GriffinCanCode/wincmd/internal/shared/id"

// EventType identifies a session notification.
type EventType int

const (
	// EventOutputChanged means Output() differs from the last drain.
	EventOutputChanged EventType = iota
	// EventChildExited means the attached process was released.
	EventChildExited
)

// String returns the metric label for the event type.
func (t EventType) String() string {
	switch t {
	case EventOutputChanged:
		return "output_changed"
	case EventChildExited:
		return "child_exited"
	default:
		return "unknown"
	}
}

// Event is one queued notification. Bridge and ExitCode are set only for
// EventChildExited; ExitCode is -1 when the child was killed or had not
// exited when it was released.
type Event struct {
	Type     EventType
	Bridge   id.BridgeID
	ExitCode int
}
