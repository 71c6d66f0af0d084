package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"planetshelf/internal/logging"
)

func TestCleanupOldLogsRemovesExpiredRunLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "shelve_20200101_000000.log")
	recent := filepath.Join(dir, "shelve_20260101_000000.log")
	current := filepath.Join(dir, "shelve_20190101_000000.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, recent, current, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "shelve_*.log",
		Exclude: []string{current},
	})
	if removed != 1 {
		t.Fatalf("expected one log removed, got %d", removed)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected expired log removed, stat err=%v", err)
	}
	for _, path := range []string{recent, current, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shelve_1.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(-1, 0, 0)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}
	if removed := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir}); removed != 0 {
		t.Fatalf("expected nothing removed, got %d", removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log kept when retention disabled: %v", err)
	}
}
