package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"planetshelf/internal/ledger"
	"planetshelf/internal/testsupport"
)

func sampleScene(id, itemType string, acquired time.Time) ledger.Scene {
	return ledger.Scene{
		SceneID:    id,
		ItemType:   itemType,
		BundleType: "analytic",
		Instrument: "PS2",
		Acquired:   acquired,
		ShelvedDir: filepath.Join("/shelf", itemType, id),
		Method:     "copy",
		RunID:      "run-1",
	}
}

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if store.Path() != cfg.Ledger.Path {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if n, err := reopened.Count(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected empty ledger, got %d (%v)", n, err)
	}
	if version, err := reopened.SchemaVersion(context.Background()); err != nil || version != "0001_shelved_scenes" {
		t.Fatalf("unexpected schema version %q (%v)", version, err)
	}
}

func TestUpsertReplacesExistingRows(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	acquired := time.Date(2019, 10, 9, 16, 4, 16, 0, time.UTC)

	if n, err := store.Upsert(ctx, []ledger.Scene{sampleScene("a", "PSScene4Band", acquired)}); err != nil || n != 1 {
		t.Fatalf("first upsert: n=%d err=%v", n, err)
	}
	again := sampleScene("a", "PSScene4Band", acquired)
	again.RunID = "run-2"
	again.StripID = "42"
	if _, err := store.Upsert(ctx, []ledger.Scene{again}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("expected one row, got %d", n)
	}
	got, err := store.Get(ctx, "a")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.RunID != "run-2" || got.StripID != "42" || !got.Acquired.Equal(acquired) || got.ShelvedAt.IsZero() {
		t.Fatalf("unexpected row %+v", got)
	}
}

func TestListFiltersByItemType(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	day := time.Date(2019, 10, 9, 0, 0, 0, 0, time.UTC)
	_, err := store.Upsert(ctx, []ledger.Scene{
		sampleScene("late", "PSScene4Band", day.Add(2*time.Hour)),
		sampleScene("early", "PSScene4Band", day),
		sampleScene("other", "REOrthoTile", day),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	scenes, err := store.List(ctx, "PSScene4Band")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(scenes) != 2 || scenes[0].SceneID != "early" || scenes[1].SceneID != "late" {
		t.Fatalf("unexpected listing %+v", scenes)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d (%v)", len(all), err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	got, err := store.Get(context.Background(), "absent")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", got, err)
	}
}

func TestUpsertRejectsEmptyID(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	if _, err := store.Upsert(context.Background(), []ledger.Scene{{ItemType: "x"}}); err == nil {
		t.Fatal("expected error for empty scene id")
	}
}
