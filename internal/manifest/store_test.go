package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"planetshelf/internal/faults"
	"planetshelf/internal/logging"
	"planetshelf/internal/manifest"
	"planetshelf/internal/testsupport"
)

func newStore() *manifest.Store {
	return manifest.NewStore(logging.NewNop())
}

func TestFindMasterManifestsSkipsDerived(t *testing.T) {
	data := t.TempDir()
	masterA := testsupport.WriteOrder(t, data, "order-a", testsupport.Scene{Stem: "20191009_160416_100d_1B_AnalyticMS"})
	masterB := testsupport.WriteOrder(t, data, "order-b", testsupport.Scene{Stem: "20191010_101010_0f12_1B_AnalyticMS"})
	store := newStore()
	if _, err := store.DeriveSceneManifests(masterA, manifest.DeriveOptions{}); err != nil {
		t.Fatalf("derive: %v", err)
	}

	masters, err := store.FindMasterManifests(data)
	if err != nil {
		t.Fatalf("FindMasterManifests: %v", err)
	}
	if !slices.Equal(masters, []string{masterA, masterB}) {
		t.Fatalf("unexpected masters %v", masters)
	}
}

func TestFindMasterManifestsMissingRoot(t *testing.T) {
	_, err := newStore().FindMasterManifests(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDeriveSceneManifestsWritesOnlySceneSections(t *testing.T) {
	data := t.TempDir()
	master := testsupport.WriteOrder(t, data, "order-1",
		testsupport.Scene{Stem: "20191009_160416_100d_1B_AnalyticMS", WithUDM: true},
		testsupport.Scene{Stem: "20191009_160417_100d_1B_AnalyticMS"},
	)

	result, err := newStore().DeriveSceneManifests(master, manifest.DeriveOptions{})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got := result.Count(manifest.DeriveWritten); got != 2 {
		t.Fatalf("expected 2 written, got %d (%+v)", got, result)
	}
	// xml sidecars and the udm mask are not scenes
	if result.Ignored != 3 {
		t.Fatalf("expected 3 ignored sections, got %d", result.Ignored)
	}

	want := filepath.Join(data, "order-1", testsupport.DefaultItemType, "20191009_160416_100d_1B_AnalyticMS_manifest.json")
	m, err := manifest.Load(want)
	if err != nil {
		t.Fatalf("load derived manifest: %v", err)
	}
	if m.BundleType() != "analytic" || m.ItemType() != testsupport.DefaultItemType {
		t.Fatalf("unexpected derived manifest: %+v", m)
	}
	if got := manifest.SceneFilePath(want, m); got != filepath.Join(data, "order-1", testsupport.DefaultItemType, "20191009_160416_100d_1B_AnalyticMS.tif") {
		t.Fatalf("unexpected scene path %q", got)
	}
}

func TestDeriveSceneManifestsIsIdempotent(t *testing.T) {
	data := t.TempDir()
	master := testsupport.WriteOrder(t, data, "order-1", testsupport.Scene{Stem: "20191009_160416_100d_1B_AnalyticMS"})
	store := newStore()

	if _, err := store.DeriveSceneManifests(master, manifest.DeriveOptions{}); err != nil {
		t.Fatalf("first derive: %v", err)
	}
	target := filepath.Join(data, "order-1", testsupport.DefaultItemType, "20191009_160416_100d_1B_AnalyticMS_manifest.json")
	before, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat derived: %v", err)
	}

	second, err := store.DeriveSceneManifests(master, manifest.DeriveOptions{})
	if err != nil {
		t.Fatalf("second derive: %v", err)
	}
	if second.Count(manifest.DeriveWritten) != 0 || second.Count(manifest.DeriveExisting) != 1 {
		t.Fatalf("expected zero writes on rerun, got %+v", second)
	}
	after, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat derived: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("derived manifest was rewritten")
	}

	third, err := store.DeriveSceneManifests(master, manifest.DeriveOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("overwrite derive: %v", err)
	}
	if third.Count(manifest.DeriveWritten) != 1 {
		t.Fatalf("expected overwrite to rewrite, got %+v", third)
	}
}

func TestDeriveSceneManifestsDryRunWritesNothing(t *testing.T) {
	data := t.TempDir()
	master := testsupport.WriteOrder(t, data, "order-1", testsupport.Scene{Stem: "20191009_160416_100d_1B_AnalyticMS"})

	result, err := newStore().DeriveSceneManifests(master, manifest.DeriveOptions{DryRun: true})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if result.Count(manifest.DerivePlanned) != 1 {
		t.Fatalf("expected one planned manifest, got %+v", result)
	}
	planned := result.Entries[0]
	if planned.Manifest.ItemID() != "20191009_160416_100d" {
		t.Fatalf("planned manifest not kept in memory: %+v", planned.Manifest)
	}
	if _, err := os.Stat(planned.Path); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write %s (err=%v)", planned.Path, err)
	}
}

func TestDeriveSceneManifestsSkipsMissingScene(t *testing.T) {
	data := t.TempDir()
	master := testsupport.WriteOrder(t, data, "order-1", testsupport.Scene{Stem: "20191009_160416_100d_1B_AnalyticMS"})
	scene := filepath.Join(data, "order-1", testsupport.DefaultItemType, "20191009_160416_100d_1B_AnalyticMS.tif")
	if err := os.Remove(scene); err != nil {
		t.Fatal(err)
	}

	result, err := newStore().DeriveSceneManifests(master, manifest.DeriveOptions{})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if result.Count(manifest.DeriveMissingScene) != 1 || result.Count(manifest.DeriveWritten) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDeriveSceneManifestsRejectsBadMaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), manifest.MasterName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := newStore().DeriveSceneManifests(path, manifest.DeriveOptions{}); !errors.Is(err, faults.ErrManifestParse) {
		t.Fatalf("expected manifest parse error, got %v", err)
	}
}

func TestFindSceneManifestsIsLazyAndOrdered(t *testing.T) {
	data := t.TempDir()
	for _, order := range []string{"order-b", "order-a"} {
		master := testsupport.WriteOrder(t, data, order,
			testsupport.Scene{Stem: "20191009_160416_100d_1B_AnalyticMS"},
			testsupport.Scene{Stem: "20191009_160417_100d_1B_AnalyticMS"},
		)
		if _, err := newStore().DeriveSceneManifests(master, manifest.DeriveOptions{}); err != nil {
			t.Fatalf("derive: %v", err)
		}
	}

	var paths []string
	for path, err := range newStore().FindSceneManifests(data) {
		if err != nil {
			t.Fatalf("unexpected walk error: %v", err)
		}
		paths = append(paths, path)
		if len(paths) == 3 {
			break
		}
	}
	if len(paths) != 3 {
		t.Fatalf("expected early stop after 3 paths, got %v", paths)
	}
	if filepath.Base(filepath.Dir(filepath.Dir(paths[0]))) != "order-a" {
		t.Fatalf("expected traversal order to start with order-a, got %v", paths)
	}
}

func TestFindSceneManifestsReportsMissingRoot(t *testing.T) {
	var errs int
	for _, err := range newStore().FindSceneManifests(filepath.Join(t.TempDir(), "missing")) {
		if err != nil {
			errs++
		}
	}
	if errs != 1 {
		t.Fatalf("expected one error for missing root, got %d", errs)
	}
}
