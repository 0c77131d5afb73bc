package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates an upload fixture of exactly size bytes at path,
// creating parent directories as needed. A size <= 0 writes a single byte
// so the file is never empty; empty uploads are rejected at submission.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// StageFile writes a fixture named name under a fresh temp directory and
// returns its full path.
func StageFile(t testing.TB, name string, size int64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	WriteFile(t, path, size)
	return path
}
