package engine

import (
	"fmt"

	"github.com/google/uuid"

	"freighter/internal/logging"
	"freighter/internal/task"
)

// session tracks admission state for one batch of uploads.
type session struct {
	id            string
	state         task.SessionState
	taskIDs       []string
	queue         []queued
	maxConcurrent int
	uploading     int

	// implicit sessions are created by UploadFile when the caller supplies
	// no session id; they hold exactly one task.
	implicit bool

	consecutiveFailures int
	halted              bool
}

// queued is one pending entry in a session's admission queue. Higher
// priority drains first; seq preserves submission order within a priority.
type queued struct {
	taskID   string
	priority int
	seq      int
}

func (s *session) enqueue(entry queued) {
	// Insertion sort keeps the queue ordered by (priority desc, seq asc).
	idx := len(s.queue)
	for i, existing := range s.queue {
		if entry.priority > existing.priority {
			idx = i
			break
		}
		if entry.priority == existing.priority && entry.seq < existing.seq {
			idx = i
			break
		}
	}
	s.queue = append(s.queue, queued{})
	copy(s.queue[idx+1:], s.queue[idx:])
	s.queue[idx] = entry
}

func (s *session) dequeue() (queued, bool) {
	if len(s.queue) == 0 {
		return queued{}, false
	}
	entry := s.queue[0]
	s.queue = s.queue[1:]
	return entry, true
}

func (s *session) dropQueued(taskID string) {
	for i, entry := range s.queue {
		if entry.taskID == taskID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func (s *session) bound(fallback int) int {
	if s.maxConcurrent > 0 {
		return s.maxConcurrent
	}
	return fallback
}

// CreateSession registers a new active session. A bound of zero inherits the
// engine-wide max_concurrent.
func (e *Engine) CreateSession(maxConcurrent int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return "", ErrDestroyed
	}
	s := &session{
		id:            uuid.NewString(),
		state:         task.SessionActive,
		maxConcurrent: maxConcurrent,
	}
	e.sessions[s.id] = s
	return s.id, nil
}

// Session returns a snapshot of a session's public state.
func (e *Engine) Session(sessionID string) (*task.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return &task.Session{
		ID:            s.id,
		State:         s.state,
		TaskIDs:       append([]string(nil), s.taskIDs...),
		MaxConcurrent: s.maxConcurrent,
	}, nil
}

// PauseSession suspends admission and pauses every uploading member task.
// Queued tasks keep their place and resume draining when the session does.
func (e *Engine) PauseSession(sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	if s.state != task.SessionActive {
		return fmt.Errorf("session %s is %s, not active", sessionID, s.state)
	}
	s.state = task.SessionPaused
	for _, id := range s.taskIDs {
		if t, err := e.tracker.GetTask(id); err == nil && t.Status == task.StatusUploading {
			_ = e.pauseTaskLocked(id)
		}
	}
	return nil
}

// ResumeSession reactivates a paused session. A positive newMaxConcurrent
// replaces the session's concurrency bound.
func (e *Engine) ResumeSession(sessionID string, newMaxConcurrent int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	if s.state != task.SessionPaused {
		return fmt.Errorf("session %s is %s, not paused", sessionID, s.state)
	}
	s.state = task.SessionActive
	if newMaxConcurrent > 0 {
		s.maxConcurrent = newMaxConcurrent
	}
	for _, id := range s.taskIDs {
		t, err := e.tracker.GetTask(id)
		if err != nil || t.Status != task.StatusPaused {
			continue
		}
		if _, err := e.tracker.Resume(id); err == nil {
			s.enqueue(queued{taskID: id, seq: e.seqFor(s, id)})
		}
	}
	e.admitLocked(s)
	return nil
}

// CancelSession cancels every non-terminal member task and clears the
// admission queue. Terminal for the session.
func (e *Engine) CancelSession(sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	if s.state == task.SessionCancelled {
		return nil
	}
	e.cancelSessionLocked(s)
	return nil
}

func (e *Engine) cancelSessionLocked(s *session) {
	s.state = task.SessionCancelled
	s.queue = nil
	for _, id := range s.taskIDs {
		e.cancelTaskLocked(s, id)
	}
}

// RetryAll is the explicit opt-in after an outage halt: it re-opens
// admission and re-queues every errored task with remaining budget.
func (e *Engine) RetryAll(sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	if s.state == task.SessionCancelled {
		return fmt.Errorf("session %s is cancelled", sessionID)
	}
	s.halted = false
	s.consecutiveFailures = 0
	for _, id := range s.taskIDs {
		t, err := e.tracker.GetTask(id)
		if err != nil || t.Status != task.StatusError {
			continue
		}
		if _, pending := e.retryTimers[id]; pending {
			continue
		}
		if e.isQueued(s, id) {
			continue
		}
		s.enqueue(queued{taskID: id, seq: e.seqFor(s, id)})
	}
	e.admitLocked(s)
	e.logger.Info("session retry requested",
		logging.String(logging.FieldSessionID, sessionID),
	)
	return nil
}

// SessionSettled reports whether a session will make no further progress on
// its own: nothing queued, nothing uploading, no armed retry timers, and
// every member task terminal. A halted session counts as settled because it
// only moves again on an explicit RetryAll.
func (e *Engine) SessionSettled(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return true
	}
	if s.halted || s.state == task.SessionCancelled {
		return true
	}
	if len(s.queue) > 0 || s.uploading > 0 {
		return false
	}
	for _, id := range s.taskIDs {
		if _, pending := e.retryTimers[id]; pending {
			return false
		}
	}
	for _, id := range s.taskIDs {
		if t, err := e.tracker.GetTask(id); err == nil && !t.Status.IsTerminal() {
			return false
		}
	}
	return true
}

func newSessionID() string {
	return uuid.NewString()
}

func (e *Engine) isQueued(s *session, taskID string) bool {
	for _, entry := range s.queue {
		if entry.taskID == taskID {
			return true
		}
	}
	return false
}

// seqFor recovers a task's submission position so re-queued tasks keep their
// original order among equals.
func (e *Engine) seqFor(s *session, taskID string) int {
	for i, id := range s.taskIDs {
		if id == taskID {
			return i
		}
	}
	return len(s.taskIDs)
}
