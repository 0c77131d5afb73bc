package task

import "strings"

// SessionState represents the lifecycle of a session.
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionPaused    SessionState = "paused"
	SessionCancelled SessionState = "cancelled"
)

// ParseSessionState converts a string into a known SessionState.
func ParseSessionState(value string) (SessionState, bool) {
	normalized := SessionState(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case SessionActive, SessionPaused, SessionCancelled:
		return normalized, true
	}
	return "", false
}

// Session is a named group of tasks sharing a concurrency bound and
// batch-level controls. The session owns its ordered task id list; each task
// holds only the session id as a lookup key.
type Session struct {
	ID    string
	State SessionState
	// TaskIDs preserves submission order.
	TaskIDs []string
	// MaxConcurrent overrides the engine-wide bound when greater than zero.
	MaxConcurrent int
}

// Clone returns a copy safe to hand to callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.TaskIDs = append([]string(nil), s.TaskIDs...)
	return &cp
}
