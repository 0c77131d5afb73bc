package task

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an upload task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusPaused,
	StatusCompleted,
	StatusError,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further automatic transitions are possible.
// StatusError counts as terminal for removal purposes even though a manual
// or scheduled retry may move the task back to uploading.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// Task is one file's transfer lifecycle record. Identity and descriptive
// metadata are immutable after creation; state fields are mutated only by
// the tracker in response to events.
type Task struct {
	ID        string
	SessionID string

	Filename string
	ByteSize int64
	MimeType string
	Category string

	Status          Status
	ProgressPercent int
	UploadedBytes   int64
	SpeedBPS        float64
	ETASeconds      float64

	RetryCount int
	MaxRetries int
	// ErrorMessage is populated only while Status is StatusError.
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
	StartedAt *time.Time
}

// Retryable reports whether a manual retry is still offered for a failed task.
func (t *Task) Retryable() bool {
	return t.Status == StatusError && t.RetryCount < t.MaxRetries
}

// Clone returns a copy safe to hand to subscribers.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.StartedAt != nil {
		started := *t.StartedAt
		cp.StartedAt = &started
	}
	return &cp
}

// CanStart reports whether the task may enter uploading from its current
// status. Paused tasks re-enter uploading through Resume, not Start.
func (t *Task) CanStart() bool {
	return t.Status == StatusPending || t.Status == StatusError
}
