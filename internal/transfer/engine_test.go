package transfer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"planetshelf/internal/faults"
	"planetshelf/internal/logging"
	"planetshelf/internal/planner"
	"planetshelf/internal/transfer"
)

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o640); err != nil {
		t.Fatal(err)
	}
	return path
}

func newEngine(method transfer.Method, dryRun bool, hardlinks bool) *transfer.Engine {
	return transfer.NewEngine(transfer.Options{
		Method:       method,
		DryRun:       dryRun,
		Logger:       logging.NewNop(),
		Capabilities: &transfer.Capabilities{Hardlinks: hardlinks},
	})
}

func TestTransferCopyPreservesMetadata(t *testing.T) {
	base := t.TempDir()
	src := writeSource(t, base, "data/a.tif", "scene")
	mtime := time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(base, "shelf", "PSScene4Band", "2019", "10", "09", "id", "a.tif")

	out := newEngine(transfer.MethodCopy, false, false).Transfer(context.Background(), planner.Pair{Src: src, Dst: dst})
	if out.Status != transfer.StatusCopied || out.Err != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat dst: %v", err)
	}
	if info.Mode().Perm() != 0o640 || !info.ModTime().Equal(mtime) {
		t.Fatalf("metadata not preserved: mode=%v mtime=%v", info.Mode().Perm(), info.ModTime())
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("copy must keep source: %v", err)
	}
}

func TestTransferLinkSharesInode(t *testing.T) {
	base := t.TempDir()
	src := writeSource(t, base, "data/a.tif", "scene")
	dst := filepath.Join(base, "shelf", "a.tif")

	out := newEngine(transfer.MethodLink, false, true).Transfer(context.Background(), planner.Pair{Src: src, Dst: dst})
	if out.Status != transfer.StatusLinked {
		t.Fatalf("unexpected outcome %+v", out)
	}
	srcInfo, _ := os.Stat(src)
	dstInfo, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat dst: %v", err)
	}
	if !os.SameFile(srcInfo, dstInfo) {
		t.Fatal("expected hard link")
	}
}

func TestTransferSkipsExistingDestination(t *testing.T) {
	base := t.TempDir()
	src := writeSource(t, base, "data/a.tif", "new")
	dst := writeSource(t, base, "shelf/a.tif", "old")
	engine := newEngine(transfer.MethodCopy, false, false)

	out := engine.Transfer(context.Background(), planner.Pair{Src: src, Dst: dst})
	if out.Status != transfer.StatusSkipped {
		t.Fatalf("expected skipped, got %+v", out)
	}
	if got, _ := os.ReadFile(dst); string(got) != "old" {
		t.Fatalf("destination overwritten: %q", got)
	}
	removed, err := engine.RemoveSource(out)
	if err != nil || removed {
		t.Fatalf("skipped pair must not remove source: removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must remain: %v", err)
	}
}

func TestTransferDryRunTouchesNothing(t *testing.T) {
	base := t.TempDir()
	src := writeSource(t, base, "data/a.tif", "scene")
	dst := filepath.Join(base, "shelf", "x", "a.tif")
	engine := newEngine(transfer.MethodCopy, true, false)

	out := engine.Transfer(context.Background(), planner.Pair{Src: src, Dst: dst})
	if out.Status != transfer.StatusCopied || !out.DryRun {
		t.Fatalf("unexpected dry run outcome %+v", out)
	}
	if _, err := os.Stat(filepath.Join(base, "shelf")); !os.IsNotExist(err) {
		t.Fatalf("dry run created destination tree: %v", err)
	}
	if removed, _ := engine.RemoveSource(out); removed {
		t.Fatal("dry run must not remove sources")
	}
}

func TestTransferFailureIsCarried(t *testing.T) {
	base := t.TempDir()
	out := newEngine(transfer.MethodCopy, false, false).Transfer(context.Background(), planner.Pair{
		Src: filepath.Join(base, "missing.tif"),
		Dst: filepath.Join(base, "shelf", "missing.tif"),
	})
	if out.Status != transfer.StatusFailed || !errors.Is(out.Err, faults.ErrTransfer) {
		t.Fatalf("expected transfer failure, got %+v", out)
	}
	if _, err := os.Stat(filepath.Join(base, "shelf", "missing.tif")); !os.IsNotExist(err) {
		t.Fatal("failed copy left a destination file")
	}
}

func TestTransferHonoursCancellation(t *testing.T) {
	base := t.TempDir()
	src := writeSource(t, base, "data/a.tif", "scene")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := newEngine(transfer.MethodCopy, false, false).Transfer(ctx, planner.Pair{Src: src, Dst: filepath.Join(base, "shelf", "a.tif")})
	if out.Status != transfer.StatusFailed || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("expected cancellation failure, got %+v", out)
	}
}

func TestRemoveSourceAfterCopy(t *testing.T) {
	base := t.TempDir()
	src := writeSource(t, base, "data/a.tif", "scene")
	engine := newEngine(transfer.MethodCopy, false, false)
	out := engine.Transfer(context.Background(), planner.Pair{Src: src, Dst: filepath.Join(base, "shelf", "a.tif")})

	removed, err := engine.RemoveSource(out)
	if err != nil || !removed {
		t.Fatalf("expected removal, removed=%v err=%v", removed, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source still present")
	}
}

func TestCheckRejectsUnsupportedLink(t *testing.T) {
	engine := transfer.NewEngine(transfer.Options{
		Method:       transfer.MethodLink,
		Capabilities: &transfer.Capabilities{Reason: "different volumes"},
	})
	if err := engine.Check(); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if err := newEngine(transfer.MethodCopy, false, false).Check(); err != nil {
		t.Fatalf("copy should always pass: %v", err)
	}
}

func TestProbeOverride(t *testing.T) {
	restore := transfer.SetProbeForTests(func(string, string) transfer.Capabilities {
		return transfer.Capabilities{Reason: "stubbed"}
	})
	defer restore()

	engine := transfer.NewEngine(transfer.Options{Method: transfer.MethodLink, DataDir: "/a", DestinationRoot: "/b"})
	if engine.Capabilities().Reason != "stubbed" {
		t.Fatalf("probe override not used: %+v", engine.Capabilities())
	}
}

func TestProbeSameVolume(t *testing.T) {
	base := t.TempDir()
	caps := transfer.Probe(base, filepath.Join(base, "not", "yet", "created"))
	if !caps.Hardlinks {
		t.Fatalf("expected hard links within one temp dir, got %+v", caps)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := transfer.ParseMethod("LINK"); err != nil || m != transfer.MethodLink {
		t.Fatalf("ParseMethod(LINK) = %v, %v", m, err)
	}
	if _, err := transfer.ParseMethod("rsync"); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
