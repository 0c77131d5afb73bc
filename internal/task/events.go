package task

import "time"

// EventType identifies a lifecycle event published by the tracker.
type EventType string

const (
	EventCreated       EventType = "created"
	EventStarted       EventType = "started"
	EventProgress      EventType = "progress"
	EventCompleted     EventType = "completed"
	EventFailed        EventType = "failed"
	EventPaused        EventType = "paused"
	EventResumed       EventType = "resumed"
	EventCancelled     EventType = "cancelled"
	EventRemoved       EventType = "removed"
	EventSessionHalted EventType = "session_halted"
)

// Event is one entry in the tracker's append-only event stream. Task carries
// a snapshot taken at emission time; subscribers must not mutate it.
type Event struct {
	Sequence  uint64
	Timestamp time.Time
	Type      EventType
	TaskID    string
	SessionID string
	Task      *Task
	// Message carries the failure description on EventFailed and the alert
	// text on EventSessionHalted.
	Message string
}
