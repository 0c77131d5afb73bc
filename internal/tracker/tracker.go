package tracker

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"freighter/internal/logging"
	"freighter/internal/progress"
	"freighter/internal/task"
)

// Tracker is the single source of truth for task state. All mutation goes
// through its operations, which serialize concurrent progress callbacks and
// publish every lifecycle event to the hub in emission order.
type Tracker struct {
	logger *slog.Logger
	hub    *EventHub
	agg    *progress.Aggregator

	mu      sync.Mutex
	tasks   map[string]*task.Task
	order   []string
	samples map[string][]sample
}

// NewTask describes a task to be created.
type NewTask struct {
	SessionID  string
	Filename   string
	ByteSize   int64
	MimeType   string
	Category   string
	MaxRetries int
}

// New constructs an empty tracker.
func New(logger *slog.Logger) *Tracker {
	return &Tracker{
		logger:  logging.NewComponentLogger(logger, "tracker"),
		hub:     NewEventHub(0),
		agg:     progress.NewAggregator(),
		tasks:   make(map[string]*task.Task),
		samples: make(map[string][]sample),
	}
}

// Subscribe registers a listener receiving every lifecycle event in emission
// order. The returned unsubscribe handle is idempotent. Listeners run
// synchronously on the mutating goroutine and must not call back into the
// tracker's mutating operations.
func (tr *Tracker) Subscribe(listener func(task.Event)) func() {
	return tr.hub.Subscribe(listener)
}

// AddSink wires a sink (such as the SQLite journal) into the event stream.
func (tr *Tracker) AddSink(sink EventSink) {
	tr.hub.AddSink(sink)
}

// Hub exposes the event buffer for tailing recent history.
func (tr *Tracker) Hub() *EventHub {
	return tr.hub
}

// CreateTask registers a new pending task and returns its snapshot.
func (tr *Tracker) CreateTask(spec NewTask) *task.Task {
	now := time.Now().UTC()
	t := &task.Task{
		ID:         uuid.NewString(),
		SessionID:  spec.SessionID,
		Filename:   spec.Filename,
		ByteSize:   spec.ByteSize,
		MimeType:   spec.MimeType,
		Category:   spec.Category,
		Status:     task.StatusPending,
		MaxRetries: spec.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.tasks[t.ID] = t
	tr.order = append(tr.order, t.ID)
	tr.agg.Track(t.ID, t.ByteSize)
	tr.publishLocked(task.EventCreated, t, "")
	return t.Clone()
}

// Start transitions a pending or failed task into uploading, resetting its
// progress for the new attempt.
func (tr *Tracker) Start(id string) (*task.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "start")
	if err != nil {
		return nil, err
	}
	if !t.CanStart() {
		return nil, tr.transitionErrLocked(t, "start")
	}

	now := time.Now().UTC()
	t.Status = task.StatusUploading
	t.ProgressPercent = 0
	t.UploadedBytes = 0
	t.SpeedBPS = 0
	t.ETASeconds = 0
	t.ErrorMessage = ""
	t.StartedAt = &now
	t.UpdatedAt = now
	tr.samples[id] = tr.samples[id][:0]
	tr.agg.Track(id, t.ByteSize)
	tr.publishLocked(task.EventStarted, t, "")
	return t.Clone(), nil
}

// UpdateProgress records a cumulative byte sample for an uploading task.
// Samples that would move progress backwards are clamped to the current
// position, keeping the reported percentage monotonic within one attempt.
func (tr *Tracker) UpdateProgress(id string, uploadedBytes int64) (*task.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "update progress of")
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusUploading {
		return nil, tr.transitionErrLocked(t, "update progress of")
	}

	if uploadedBytes < t.UploadedBytes {
		uploadedBytes = t.UploadedBytes
	}
	if t.ByteSize > 0 && uploadedBytes > t.ByteSize {
		uploadedBytes = t.ByteSize
	}
	t.UploadedBytes = uploadedBytes
	if t.ByteSize > 0 {
		percent := int(math.Round(float64(uploadedBytes) / float64(t.ByteSize) * 100))
		if percent > 100 {
			percent = 100
		}
		if percent > t.ProgressPercent {
			t.ProgressPercent = percent
		}
	}

	now := time.Now().UTC()
	t.UpdatedAt = now
	tr.samples[id] = appendSample(tr.samples[id], sample{at: now, bytes: uploadedBytes})
	t.SpeedBPS = windowSpeed(tr.samples[id])
	if t.SpeedBPS > 0 && t.ByteSize > uploadedBytes {
		t.ETASeconds = float64(t.ByteSize-uploadedBytes) / t.SpeedBPS
	} else {
		t.ETASeconds = 0
	}

	tr.agg.Observe(id, uploadedBytes, t.SpeedBPS)
	tr.publishLocked(task.EventProgress, t, "")
	return t.Clone(), nil
}

// Complete marks an uploading task as finished. Only the transport's
// successful resolution may drive this transition.
func (tr *Tracker) Complete(id string) (*task.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "complete")
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusUploading {
		return nil, tr.transitionErrLocked(t, "complete")
	}

	t.Status = task.StatusCompleted
	t.ProgressPercent = 100
	t.UploadedBytes = t.ByteSize
	t.SpeedBPS = 0
	t.ETASeconds = 0
	t.UpdatedAt = time.Now().UTC()
	delete(tr.samples, id)
	tr.agg.Observe(id, t.ByteSize, 0)
	tr.publishLocked(task.EventCompleted, t, "")
	return t.Clone(), nil
}

// Fail marks an uploading task as errored. When the failure is retryable and
// budget remains, the retry counter is incremented and the second return
// value reports that a retry should be scheduled.
func (tr *Tracker) Fail(id, errorMessage string, retryable bool) (*task.Task, bool, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "fail")
	if err != nil {
		return nil, false, err
	}
	if t.Status != task.StatusUploading {
		return nil, false, tr.transitionErrLocked(t, "fail")
	}

	willRetry := retryable && t.RetryCount < t.MaxRetries
	if willRetry {
		t.RetryCount++
	}
	t.Status = task.StatusError
	t.ErrorMessage = errorMessage
	t.SpeedBPS = 0
	t.ETASeconds = 0
	t.UpdatedAt = time.Now().UTC()
	tr.agg.Observe(id, t.UploadedBytes, 0)
	tr.publishLocked(task.EventFailed, t, errorMessage)
	return t.Clone(), willRetry, nil
}

// Pause suspends an uploading task. The in-flight attempt is aborted; resume
// restarts the transfer from byte zero.
func (tr *Tracker) Pause(id string) (*task.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "pause")
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusUploading {
		return nil, tr.transitionErrLocked(t, "pause")
	}

	t.Status = task.StatusPaused
	t.SpeedBPS = 0
	t.ETASeconds = 0
	t.UpdatedAt = time.Now().UTC()
	tr.agg.Observe(id, t.UploadedBytes, 0)
	tr.publishLocked(task.EventPaused, t, "")
	return t.Clone(), nil
}

// Resume returns a paused task to the pending queue so admission can restart
// it under the concurrency bound.
func (tr *Tracker) Resume(id string) (*task.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "resume")
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusPaused {
		return nil, tr.transitionErrLocked(t, "resume")
	}

	t.Status = task.StatusPending
	t.UpdatedAt = time.Now().UTC()
	tr.publishLocked(task.EventResumed, t, "")
	return t.Clone(), nil
}

// Cancel terminates a task from any non-terminal status. No further events
// are published for the task afterwards.
func (tr *Tracker) Cancel(id string) (*task.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "cancel")
	if err != nil {
		return nil, err
	}
	// Errored tasks may still be cancelled: it stops a pending retry.
	if t.Status == task.StatusCompleted || t.Status == task.StatusCancelled {
		return nil, tr.transitionErrLocked(t, "cancel")
	}

	t.Status = task.StatusCancelled
	t.SpeedBPS = 0
	t.ETASeconds = 0
	t.UpdatedAt = time.Now().UTC()
	delete(tr.samples, id)
	tr.agg.Observe(id, t.UploadedBytes, 0)
	tr.publishLocked(task.EventCancelled, t, "")
	return t.Clone(), nil
}

// Remove purges a task record. Valid only on terminal statuses.
func (tr *Tracker) Remove(id string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, err := tr.taskLocked(id, "remove")
	if err != nil {
		return err
	}
	if !t.Status.IsTerminal() {
		return tr.transitionErrLocked(t, "remove")
	}

	tr.publishLocked(task.EventRemoved, t, "")
	delete(tr.tasks, id)
	delete(tr.samples, id)
	tr.agg.Remove(id)
	for i, existing := range tr.order {
		if existing == id {
			tr.order = append(tr.order[:i], tr.order[i+1:]...)
			break
		}
	}
	return nil
}

// PublishSessionAlert emits a session-level alert event (admission halted).
func (tr *Tracker) PublishSessionAlert(sessionID, message string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.hub.Publish(task.Event{
		Type:      task.EventSessionHalted,
		SessionID: sessionID,
		Message:   message,
	})
}

// GetTask returns a snapshot of one task.
func (tr *Tracker) GetTask(id string) (*task.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	t, ok := tr.tasks[id]
	if !ok {
		return nil, &task.NotFoundError{TaskID: id}
	}
	return t.Clone(), nil
}

// AllTasks returns snapshots of every non-removed task in creation order.
func (tr *Tracker) AllTasks() []*task.Task {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]*task.Task, 0, len(tr.order))
	for _, id := range tr.order {
		if t, ok := tr.tasks[id]; ok {
			out = append(out, t.Clone())
		}
	}
	return out
}

// SessionTasks returns snapshots of a session's tasks in creation order.
func (tr *Tracker) SessionTasks(sessionID string) []*task.Task {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	var out []*task.Task
	for _, id := range tr.order {
		if t, ok := tr.tasks[id]; ok && t.SessionID == sessionID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Counts aggregates task counts by status, optionally filtered by session.
// Counts are always derived from current task state, never cached.
func (tr *Tracker) Counts(sessionID string) map[task.Status]int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	counts := make(map[task.Status]int)
	for _, t := range tr.tasks {
		if sessionID != "" && t.SessionID != sessionID {
			continue
		}
		counts[t.Status]++
	}
	return counts
}

// TotalProgress returns the byte-weighted overall percentage.
func (tr *Tracker) TotalProgress() int {
	return tr.agg.TotalPercent()
}

// OverallSpeed returns the combined throughput of in-flight tasks.
func (tr *Tracker) OverallSpeed() float64 {
	return tr.agg.OverallSpeed()
}

// EstimatedTimeRemaining estimates seconds until all tracked bytes are sent.
// The second return value is false when no estimate is possible.
func (tr *Tracker) EstimatedTimeRemaining() (float64, bool) {
	return tr.agg.ETASeconds()
}

func (tr *Tracker) taskLocked(id, op string) (*task.Task, error) {
	t, ok := tr.tasks[id]
	if !ok {
		tr.logger.Warn("operation on unknown task",
			logging.String("op", op),
			logging.String(logging.FieldTaskID, id),
		)
		return nil, &task.NotFoundError{TaskID: id}
	}
	return t, nil
}

func (tr *Tracker) transitionErrLocked(t *task.Task, op string) error {
	tr.logger.Warn("invalid task transition",
		logging.String("op", op),
		logging.String(logging.FieldTaskID, t.ID),
		logging.String("status", string(t.Status)),
	)
	return &task.TransitionError{TaskID: t.ID, From: t.Status, Op: op}
}

func (tr *Tracker) publishLocked(eventType task.EventType, t *task.Task, message string) {
	tr.hub.Publish(task.Event{
		Type:      eventType,
		TaskID:    t.ID,
		SessionID: t.SessionID,
		Task:      t.Clone(),
		Message:   message,
	})
}
