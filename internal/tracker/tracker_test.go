package tracker_test

import (
	"errors"
	"testing"

	"freighter/internal/logging"
	"freighter/internal/task"
	"freighter/internal/tracker"
)

func newTracker() *tracker.Tracker {
	return tracker.New(logging.NewNop())
}

func createTask(t *testing.T, tr *tracker.Tracker, size int64) *task.Task {
	t.Helper()
	return tr.CreateTask(tracker.NewTask{
		SessionID:  "session-1",
		Filename:   "file.bin",
		ByteSize:   size,
		MaxRetries: 3,
	})
}

func TestLifecycleHappyPath(t *testing.T) {
	tr := newTracker()

	var events []task.EventType
	unsubscribe := tr.Subscribe(func(evt task.Event) {
		events = append(events, evt.Type)
	})
	defer unsubscribe()

	created := createTask(t, tr, 100)
	if created.Status != task.StatusPending {
		t.Fatalf("new task status = %s, want pending", created.Status)
	}

	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := tr.UpdateProgress(created.ID, 50); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	snapshot, err := tr.Complete(created.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if snapshot.Status != task.StatusCompleted || snapshot.ProgressPercent != 100 {
		t.Fatalf("completed snapshot = %s/%d%%", snapshot.Status, snapshot.ProgressPercent)
	}
	if snapshot.UploadedBytes != 100 {
		t.Fatalf("completed uploaded bytes = %d, want 100", snapshot.UploadedBytes)
	}

	want := []task.EventType{task.EventCreated, task.EventStarted, task.EventProgress, task.EventCompleted}
	if len(events) != len(want) {
		t.Fatalf("event count = %d (%v), want %d", len(events), events, len(want))
	}
	for i, evt := range want {
		if events[i] != evt {
			t.Fatalf("event[%d] = %s, want %s", i, events[i], evt)
		}
	}
}

func TestEventSequenceIsMonotonic(t *testing.T) {
	tr := newTracker()

	var sequences []uint64
	defer tr.Subscribe(func(evt task.Event) {
		sequences = append(sequences, evt.Sequence)
	})()

	created := createTask(t, tr, 10)
	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := tr.Complete(created.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	for i := 1; i < len(sequences); i++ {
		if sequences[i] <= sequences[i-1] {
			t.Fatalf("sequence not increasing: %v", sequences)
		}
	}
}

func TestProgressRequiresUploading(t *testing.T) {
	tr := newTracker()
	created := createTask(t, tr, 100)

	_, err := tr.UpdateProgress(created.ID, 10)
	if !task.IsInvalidTransition(err) {
		t.Fatalf("expected transition error, got %v", err)
	}
}

func TestProgressIsMonotonicAndClamped(t *testing.T) {
	tr := newTracker()
	created := createTask(t, tr, 100)
	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := tr.UpdateProgress(created.ID, 60); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	// A late, lower sample must not move progress backwards.
	snapshot, err := tr.UpdateProgress(created.ID, 40)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if snapshot.ProgressPercent < 60 {
		t.Fatalf("progress went backwards: %d%%", snapshot.ProgressPercent)
	}

	snapshot, err = tr.UpdateProgress(created.ID, 500)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if snapshot.UploadedBytes != 100 || snapshot.ProgressPercent != 100 {
		t.Fatalf("overshoot not clamped: %d bytes, %d%%", snapshot.UploadedBytes, snapshot.ProgressPercent)
	}
}

func TestFailTracksRetryBudget(t *testing.T) {
	tr := newTracker()
	created := createTask(t, tr, 100)

	for attempt := 1; attempt <= 3; attempt++ {
		if _, err := tr.Start(created.ID); err != nil {
			t.Fatalf("Start attempt %d: %v", attempt, err)
		}
		snapshot, willRetry, err := tr.Fail(created.ID, "boom", true)
		if err != nil {
			t.Fatalf("Fail attempt %d: %v", attempt, err)
		}
		if !willRetry {
			t.Fatalf("attempt %d should leave retry budget", attempt)
		}
		if snapshot.RetryCount != attempt {
			t.Fatalf("retry count = %d, want %d", snapshot.RetryCount, attempt)
		}
		if snapshot.Status != task.StatusError || snapshot.ErrorMessage != "boom" {
			t.Fatalf("failed snapshot = %s/%q", snapshot.Status, snapshot.ErrorMessage)
		}
	}

	// Budget exhausted: the fourth failure must not offer a retry.
	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start final: %v", err)
	}
	snapshot, willRetry, err := tr.Fail(created.ID, "boom", true)
	if err != nil {
		t.Fatalf("Fail final: %v", err)
	}
	if willRetry {
		t.Fatal("retry offered beyond budget")
	}
	if snapshot.RetryCount != 3 {
		t.Fatalf("retry count after exhaustion = %d, want 3", snapshot.RetryCount)
	}
}

func TestFailTerminalErrorConsumesNoBudget(t *testing.T) {
	tr := newTracker()
	created := createTask(t, tr, 100)
	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snapshot, willRetry, err := tr.Fail(created.ID, "403 forbidden", false)
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if willRetry || snapshot.RetryCount != 0 {
		t.Fatalf("terminal failure: willRetry=%v retryCount=%d", willRetry, snapshot.RetryCount)
	}
}

func TestStartResetsProgressForRetry(t *testing.T) {
	tr := newTracker()
	created := createTask(t, tr, 100)
	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := tr.UpdateProgress(created.ID, 70); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if _, _, err := tr.Fail(created.ID, "boom", true); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	snapshot, err := tr.Start(created.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if snapshot.ProgressPercent != 0 || snapshot.UploadedBytes != 0 || snapshot.ErrorMessage != "" {
		t.Fatalf("restart did not reset state: %+v", snapshot)
	}
}

func TestPauseResumeCycle(t *testing.T) {
	tr := newTracker()
	created := createTask(t, tr, 100)
	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	paused, err := tr.Pause(created.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if paused.Status != task.StatusPaused {
		t.Fatalf("status after pause = %s", paused.Status)
	}

	// Progress from the aborted attempt must be rejected.
	if _, err := tr.UpdateProgress(created.ID, 90); !task.IsInvalidTransition(err) {
		t.Fatalf("expected transition error for paused progress, got %v", err)
	}

	resumed, err := tr.Resume(created.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Status != task.StatusPending {
		t.Fatalf("status after resume = %s, want pending", resumed.Status)
	}
}

func TestCancelStatesAndIdempotence(t *testing.T) {
	tr := newTracker()

	pending := createTask(t, tr, 10)
	if _, err := tr.Cancel(pending.ID); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}

	errored := createTask(t, tr, 10)
	if _, err := tr.Start(errored.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := tr.Fail(errored.ID, "boom", true); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if _, err := tr.Cancel(errored.ID); err != nil {
		t.Fatalf("cancel errored (pending retry): %v", err)
	}

	completed := createTask(t, tr, 10)
	if _, err := tr.Start(completed.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := tr.Complete(completed.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := tr.Cancel(completed.ID); !task.IsInvalidTransition(err) {
		t.Fatalf("cancel completed should fail, got %v", err)
	}
	if _, err := tr.Cancel(pending.ID); !task.IsInvalidTransition(err) {
		t.Fatalf("double cancel should fail, got %v", err)
	}
}

func TestRemoveRequiresTerminalStatus(t *testing.T) {
	tr := newTracker()
	created := createTask(t, tr, 10)

	if err := tr.Remove(created.ID); !task.IsInvalidTransition(err) {
		t.Fatalf("remove pending should fail, got %v", err)
	}

	if _, err := tr.Cancel(created.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := tr.Remove(created.ID); err != nil {
		t.Fatalf("remove cancelled: %v", err)
	}
	if _, err := tr.GetTask(created.ID); !task.IsNotFound(err) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}

func TestUnknownTaskReturnsNotFound(t *testing.T) {
	tr := newTracker()
	if _, err := tr.Start("missing"); !task.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var nf *task.NotFoundError
	_, err := tr.GetTask("missing")
	if !errors.As(err, &nf) || nf.TaskID != "missing" {
		t.Fatalf("expected NotFoundError with id, got %v", err)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	tr := newTracker()
	count := 0
	unsubscribe := tr.Subscribe(func(task.Event) { count++ })

	createTask(t, tr, 10)
	unsubscribe()
	unsubscribe()
	createTask(t, tr, 10)

	if count != 1 {
		t.Fatalf("listener fired %d times, want 1", count)
	}
}

func TestCountsAndSessionTasks(t *testing.T) {
	tr := newTracker()
	a := createTask(t, tr, 10)
	b := createTask(t, tr, 10)
	other := tr.CreateTask(tracker.NewTask{SessionID: "session-2", Filename: "x", ByteSize: 1})

	if _, err := tr.Start(a.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	counts := tr.Counts("session-1")
	if counts[task.StatusUploading] != 1 || counts[task.StatusPending] != 1 {
		t.Fatalf("counts = %v", counts)
	}

	session := tr.SessionTasks("session-1")
	if len(session) != 2 || session[0].ID != a.ID || session[1].ID != b.ID {
		t.Fatalf("session tasks out of order: %v", session)
	}
	if len(tr.SessionTasks("session-2")) != 1 {
		t.Fatal("other session missing its task")
	}
	_ = other
}

func TestSessionAlertReachesSubscribers(t *testing.T) {
	tr := newTracker()
	var got task.Event
	defer tr.Subscribe(func(evt task.Event) {
		if evt.Type == task.EventSessionHalted {
			got = evt
		}
	})()

	tr.PublishSessionAlert("session-9", "halted")
	if got.Type != task.EventSessionHalted || got.SessionID != "session-9" || got.Message != "halted" {
		t.Fatalf("unexpected alert event: %+v", got)
	}
}
