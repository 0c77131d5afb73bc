package engine

import (
	"context"
	"time"

	"freighter/internal/logging"
	"freighter/internal/retry"
	"freighter/internal/task"
)

// admitLocked drains the session queue into execution while the session is
// active, connectivity holds, and the uploading count stays under the bound.
// Callers hold e.mu.
func (e *Engine) admitLocked(s *session) {
	if e.destroyed || s.state != task.SessionActive || s.halted || !e.online() {
		return
	}
	bound := s.bound(e.cfg.Engine.MaxConcurrent)
	for s.uploading < bound {
		entry, ok := s.dequeue()
		if !ok {
			return
		}
		if _, err := e.tracker.Start(entry.taskID); err != nil {
			// The task was cancelled or removed while queued; skip it.
			continue
		}
		attemptCtx, cancel := context.WithCancel(e.baseCtx)
		e.attemptSeq++
		gen := e.attemptSeq
		e.inflight[entry.taskID] = &attempt{gen: gen, cancel: cancel}
		s.uploading++
		e.wg.Add(1)
		go e.runAttempt(attemptCtx, s.id, entry.taskID, gen)
	}
}

// runAttempt drives one transport attempt and feeds its resolution back into
// the tracker. The transport's return is the sole source of truth: a task
// completes only when Transfer resolves successfully. An attempt may act on
// the task only while its gen is still the one registered in e.inflight;
// pause and cancel deregister it, and a resume registers a fresh attempt, so
// a slow-to-abort transport can never fail or complete its successor's task.
func (e *Engine) runAttempt(ctx context.Context, sessionID, taskID string, gen uint64) {
	defer e.wg.Done()

	e.mu.Lock()
	req, ok := e.files[taskID]
	e.mu.Unlock()
	if !ok {
		return
	}

	onProgress := func(uploadedBytes int64) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if att, ok := e.inflight[taskID]; !ok || att.gen != gen {
			// Sample from a superseded attempt; drop it.
			return
		}
		_, _ = e.tracker.UpdateProgress(taskID, uploadedBytes)
	}

	_, transferErr := e.transport.Transfer(ctx, req, onProgress)

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[sessionID]
	if s != nil {
		s.uploading--
	}

	att, ok := e.inflight[taskID]
	if !ok || att.gen != gen {
		// Pause or cancel voided this attempt, or a newer attempt already
		// owns the task. The outcome is stale; only the slot is returned.
		if s != nil {
			e.admitLocked(s)
		}
		return
	}
	att.cancel()
	delete(e.inflight, taskID)

	if transferErr == nil {
		if _, err := e.tracker.Complete(taskID); err == nil && s != nil {
			s.consecutiveFailures = 0
		}
		if s != nil {
			e.admitLocked(s)
		}
		return
	}

	retryable := retry.Retryable(transferErr)
	snapshot, willRetry, failErr := e.tracker.Fail(taskID, transferErr.Error(), retryable)
	if failErr != nil {
		if s != nil {
			e.admitLocked(s)
		}
		return
	}

	e.logger.Warn("transfer attempt failed",
		logging.Error(transferErr),
		logging.String(logging.FieldTaskID, taskID),
		logging.String(logging.FieldSessionID, sessionID),
		logging.Bool("retryable", retryable),
		logging.Int("retry_count", snapshot.RetryCount),
	)

	if s != nil && retryable {
		s.consecutiveFailures++
		if !s.halted && s.consecutiveFailures >= e.cfg.Engine.OutageThreshold {
			e.haltSessionLocked(s)
		}
	}

	if willRetry && s != nil && !s.halted && s.state == task.SessionActive {
		e.scheduleRetryLocked(s, taskID, snapshot.RetryCount)
	}
	if s != nil {
		e.admitLocked(s)
	}
}

// haltSessionLocked stops admission after repeated retryable failures so the
// session does not burn its retry budget against a downed backend. Resuming
// requires the caller's explicit RetryAll.
func (e *Engine) haltSessionLocked(s *session) {
	s.halted = true
	message := "admission halted after repeated transfer failures; call RetryAll to resume"
	e.tracker.PublishSessionAlert(s.id, message)
	e.logger.Error("session admission halted",
		logging.String(logging.FieldSessionID, s.id),
		logging.Int("consecutive_failures", s.consecutiveFailures),
	)
}

// scheduleRetryLocked arms the backoff timer for a failed attempt. The timer
// re-queues the task through normal admission; while offline the queue holds
// it without consuming further budget.
func (e *Engine) scheduleRetryLocked(s *session, taskID string, retryCount int) {
	delay := e.policy.Delay(retryCount - 1)
	sessionID := s.id
	e.retryTimers[taskID] = time.AfterFunc(delay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.retryTimers, taskID)
		if e.destroyed {
			return
		}
		sess, ok := e.sessions[sessionID]
		if !ok || sess.state == task.SessionCancelled {
			return
		}
		current, err := e.tracker.GetTask(taskID)
		if err != nil || current.Status != task.StatusError {
			return
		}
		sess.enqueue(queued{taskID: taskID, seq: e.seqFor(sess, taskID)})
		e.admitLocked(sess)
	})
}

// PauseTask suspends one uploading task, aborting its in-flight attempt.
// Resume restarts the transfer from byte zero.
func (e *Engine) PauseTask(taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionOfLocked(taskID) == nil {
		return &task.NotFoundError{TaskID: taskID}
	}
	return e.pauseTaskLocked(taskID)
}

func (e *Engine) pauseTaskLocked(taskID string) error {
	if _, err := e.tracker.Pause(taskID); err != nil {
		return err
	}
	if att, ok := e.inflight[taskID]; ok {
		att.cancel()
		delete(e.inflight, taskID)
	}
	return nil
}

// ResumeTask returns a paused task to its session's queue.
func (e *Engine) ResumeTask(taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionOfLocked(taskID)
	if s == nil {
		return &task.NotFoundError{TaskID: taskID}
	}
	if _, err := e.tracker.Resume(taskID); err != nil {
		return err
	}
	s.enqueue(queued{taskID: taskID, seq: e.seqFor(s, taskID)})
	e.admitLocked(s)
	return nil
}

// CancelTask terminates one task: queued entries are dropped, armed retry
// timers are stopped, and in-flight attempts are signalled to abort.
func (e *Engine) CancelTask(taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionOfLocked(taskID)
	if s == nil {
		return &task.NotFoundError{TaskID: taskID}
	}
	if err := e.cancelTaskLocked(s, taskID); err != nil {
		return err
	}
	e.admitLocked(s)
	return nil
}

func (e *Engine) cancelTaskLocked(s *session, taskID string) error {
	current, err := e.tracker.GetTask(taskID)
	if err != nil {
		return err
	}
	if current.Status == task.StatusCompleted || current.Status == task.StatusCancelled {
		return nil
	}
	if _, err := e.tracker.Cancel(taskID); err != nil {
		return err
	}
	s.dropQueued(taskID)
	if timer, ok := e.retryTimers[taskID]; ok {
		timer.Stop()
		delete(e.retryTimers, taskID)
	}
	if att, ok := e.inflight[taskID]; ok {
		att.cancel()
		delete(e.inflight, taskID)
	}
	return nil
}

// RemoveTask purges a terminal task from the tracker and the engine's
// bookkeeping.
func (e *Engine) RemoveTask(taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.tracker.Remove(taskID); err != nil {
		return err
	}
	delete(e.files, taskID)
	if s := e.sessionOfLocked(taskID); s != nil {
		s.dropQueued(taskID)
		for i, id := range s.taskIDs {
			if id == taskID {
				s.taskIDs = append(s.taskIDs[:i], s.taskIDs[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (e *Engine) sessionOfLocked(taskID string) *session {
	for _, s := range e.sessions {
		for _, id := range s.taskIDs {
			if id == taskID {
				return s
			}
		}
	}
	return nil
}
