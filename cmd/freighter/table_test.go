package main

import (
	"strings"
	"testing"

	"freighter/internal/task"
)

func TestTaskTableRendersHeadersAndRows(t *testing.T) {
	tt := &taskTable{headers: []string{"ID", "File", "Size"}}
	tt.addRow("abc", "video.mkv", "1.0 MiB")
	tt.addRow("def")

	rendered := tt.render()
	for _, want := range []string{"ID", "File", "Size", "abc", "video.mkv", "1.0 MiB", "def"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, rendered)
		}
	}
}

func TestTaskTableNoHeaders(t *testing.T) {
	if got := (&taskTable{}).render(); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
}

func TestStatusCellPlainWithoutTTY(t *testing.T) {
	tt := &taskTable{}
	for _, status := range []task.Status{task.StatusCompleted, task.StatusError, task.StatusPending} {
		if got := tt.statusCell(status); got != string(status) {
			t.Fatalf("statusCell(%s) = %q, want plain text", status, got)
		}
	}
}

func TestStatusCellUncoloredStatusPassesThrough(t *testing.T) {
	tt := &taskTable{color: true}
	// Pending has no color mapping and must render as-is even on a TTY.
	if got := tt.statusCell(task.StatusPending); got != string(task.StatusPending) {
		t.Fatalf("statusCell(pending) = %q", got)
	}
	if got := tt.statusCell(task.StatusCompleted); !strings.Contains(got, string(task.StatusCompleted)) {
		t.Fatalf("statusCell(completed) = %q, want the status text present", got)
	}
}

func TestStatsLineIsSorted(t *testing.T) {
	line := statsLine(map[task.Status]int{
		task.StatusPending:   2,
		task.StatusCompleted: 5,
		task.StatusError:     1,
	})
	want := "Totals: completed=5 error=1 pending=2"
	if line != want {
		t.Fatalf("statsLine = %q, want %q", line, want)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID short input = %q", got)
	}
}
