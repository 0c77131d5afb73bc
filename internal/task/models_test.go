package task_test

import (
	"testing"
	"time"

	"freighter/internal/task"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  task.Status
		ok    bool
	}{
		{"pending", task.StatusPending, true},
		{" Uploading ", task.StatusUploading, true},
		{"COMPLETED", task.StatusCompleted, true},
		{"error", task.StatusError, true},
		{"", "", false},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, ok := task.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := map[task.Status]bool{
		task.StatusPending:   false,
		task.StatusUploading: false,
		task.StatusPaused:    false,
		task.StatusCompleted: true,
		task.StatusError:     true,
		task.StatusCancelled: true,
	}
	for _, status := range task.AllStatuses() {
		if got := status.IsTerminal(); got != terminal[status] {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, terminal[status])
		}
	}
}

func TestTaskRetryable(t *testing.T) {
	tk := &task.Task{Status: task.StatusError, RetryCount: 1, MaxRetries: 3}
	if !tk.Retryable() {
		t.Fatal("expected errored task under budget to be retryable")
	}
	tk.RetryCount = 3
	if tk.Retryable() {
		t.Fatal("expected exhausted budget to block retry")
	}
	tk.RetryCount = 0
	tk.Status = task.StatusCompleted
	if tk.Retryable() {
		t.Fatal("completed task must not be retryable")
	}
}

func TestCanStart(t *testing.T) {
	for _, status := range task.AllStatuses() {
		tk := &task.Task{Status: status}
		want := status == task.StatusPending || status == task.StatusError
		if got := tk.CanStart(); got != want {
			t.Errorf("CanStart from %s = %v, want %v", status, got, want)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	started := time.Now()
	original := &task.Task{ID: "a", Status: task.StatusUploading, StartedAt: &started}
	clone := original.Clone()
	clone.Status = task.StatusCompleted
	*clone.StartedAt = started.Add(time.Hour)

	if original.Status != task.StatusUploading {
		t.Fatal("mutating clone status changed the original")
	}
	if !original.StartedAt.Equal(started) {
		t.Fatal("mutating clone StartedAt changed the original")
	}
}
