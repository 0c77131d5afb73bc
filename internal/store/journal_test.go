package store_test

import (
	"context"
	"testing"

	"freighter/internal/logging"
	"freighter/internal/store"
	"freighter/internal/task"
	"freighter/internal/testsupport"
	"freighter/internal/tracker"
)

func TestJournalMirrorsTrackerLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	tr := tracker.New(logging.NewNop())
	tr.AddSink(store.NewJournal(st, logging.NewNop()))

	created := tr.CreateTask(tracker.NewTask{
		SessionID:  "session-1",
		Filename:   "video.mkv",
		ByteSize:   2048,
		MaxRetries: 3,
	})

	row, err := st.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row == nil || row.Status != task.StatusPending {
		t.Fatalf("journal row after create = %+v", row)
	}

	if _, err := tr.Start(created.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := tr.UpdateProgress(created.ID, 1024); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if _, err := tr.Complete(created.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	row, err = st.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.Status != task.StatusCompleted || row.ProgressPercent != 100 {
		t.Fatalf("journal row after complete = %+v", row)
	}

	if err := tr.Remove(created.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	row, err = st.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row != nil {
		t.Fatalf("journal row survived removal: %+v", row)
	}
}

func TestJournalIgnoresSessionAlerts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	tr := tracker.New(logging.NewNop())
	tr.AddSink(store.NewJournal(st, logging.NewNop()))
	tr.PublishSessionAlert("session-1", "halted")

	tasks, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("session alert produced journal rows: %v", tasks)
	}
}
