package transfer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"planetshelf/internal/transfer"
)

func TestHandleUnshelveableQuarantines(t *testing.T) {
	base := t.TempDir()
	a := writeSource(t, base, "data/a.tif", "a")
	b := writeSource(t, base, "data/b.xml", "b")
	quarantine := filepath.Join(base, "quarantine")
	existing := writeSource(t, quarantine, "b.xml", "older")

	got := newEngine(transfer.MethodCopy, false, false).HandleUnshelveable(context.Background(), []string{a, b}, transfer.Routing{QuarantineDir: quarantine, Remove: true})
	if len(got) != 2 {
		t.Fatalf("expected 2 dispositions, got %+v", got)
	}
	if got[0].Action != transfer.ActionMoved || got[0].Target != filepath.Join(quarantine, "a.tif") {
		t.Fatalf("unexpected disposition %+v", got[0])
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatal("moved file still in data directory")
	}
	if got[1].Action != transfer.ActionKept {
		t.Fatalf("existing quarantine target must be kept, got %+v", got[1])
	}
	if body, _ := os.ReadFile(existing); string(body) != "older" {
		t.Fatalf("quarantine target overwritten: %q", body)
	}
	if _, err := os.Stat(b); err != nil {
		t.Fatalf("kept file must stay in place: %v", err)
	}
}

func TestHandleUnshelveableDeletesWithoutQuarantine(t *testing.T) {
	base := t.TempDir()
	a := writeSource(t, base, "data/a.tif", "a")

	got := newEngine(transfer.MethodCopy, false, false).HandleUnshelveable(context.Background(), []string{a}, transfer.Routing{Remove: true})
	if got[0].Action != transfer.ActionDeleted {
		t.Fatalf("unexpected disposition %+v", got[0])
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatal("file not deleted")
	}
}

func TestHandleUnshelveableLeavesFilesByDefault(t *testing.T) {
	base := t.TempDir()
	a := writeSource(t, base, "data/a.tif", "a")

	got := newEngine(transfer.MethodCopy, false, false).HandleUnshelveable(context.Background(), []string{a}, transfer.Routing{})
	if got[0].Action != transfer.ActionLeft {
		t.Fatalf("unexpected disposition %+v", got[0])
	}
	if _, err := os.Stat(a); err != nil {
		t.Fatal("file should be left alone")
	}
}

func TestHandleUnshelveableDryRun(t *testing.T) {
	base := t.TempDir()
	a := writeSource(t, base, "data/a.tif", "a")
	quarantine := filepath.Join(base, "quarantine")

	got := newEngine(transfer.MethodCopy, true, false).HandleUnshelveable(context.Background(), []string{a}, transfer.Routing{QuarantineDir: quarantine})
	if got[0].Action != transfer.ActionMoved || !got[0].DryRun {
		t.Fatalf("unexpected dry run disposition %+v", got[0])
	}
	if _, err := os.Stat(quarantine); !os.IsNotExist(err) {
		t.Fatal("dry run created quarantine directory")
	}
	if _, err := os.Stat(a); err != nil {
		t.Fatal("dry run moved the file")
	}
}
