package classify_test

import (
	"testing"

	"freighter/internal/classify"
	"freighter/internal/task"
)

func rules() []classify.Rule {
	return []classify.Rule{
		{Category: "report", Patterns: []string{"report", ".pdf"}},
		{Category: "image", Patterns: []string{".png", ".jpg"}},
		{Category: "archive", Patterns: []string{".zip"}},
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := classify.New(rules())

	// Matches both the report and image rules; rule order decides.
	category, ok := c.Classify("quarterly-report.png")
	if !ok || category != "report" {
		t.Fatalf("Classify = (%q, %v), want (report, true)", category, ok)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := classify.New(rules())
	category, ok := c.Classify("PHOTO.JPG")
	if !ok || category != "image" {
		t.Fatalf("Classify = (%q, %v), want (image, true)", category, ok)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := classify.New(rules())
	if category, ok := c.Classify("notes.txt"); ok {
		t.Fatalf("expected no match, got %q", category)
	}
}

func TestNewDropsEmptyPatterns(t *testing.T) {
	c := classify.New([]classify.Rule{
		{Category: "blank", Patterns: []string{"", "  "}},
		{Category: "doc", Patterns: []string{".doc"}},
	})
	if category, ok := c.Classify("anything"); ok {
		t.Fatalf("rule with only empty patterns matched as %q", category)
	}
	if category, ok := c.Classify("letter.doc"); !ok || category != "doc" {
		t.Fatalf("Classify = (%q, %v), want (doc, true)", category, ok)
	}
}

func TestApplyToUncategorizedIsIdempotent(t *testing.T) {
	tasks := []*task.Task{
		{ID: "1", Category: ""},
		{ID: "2", Category: "image"},
		{ID: "3", Category: ""},
	}

	if updated := classify.ApplyToUncategorized(tasks, "misc"); updated != 2 {
		t.Fatalf("first apply updated %d, want 2", updated)
	}
	if updated := classify.ApplyToUncategorized(tasks, "misc"); updated != 0 {
		t.Fatalf("second apply updated %d, want 0", updated)
	}
	if tasks[1].Category != "image" {
		t.Fatalf("existing category overwritten: %q", tasks[1].Category)
	}
}
