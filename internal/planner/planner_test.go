package planner_test

import (
	"path/filepath"
	"testing"
	"time"

	"planetshelf/internal/logging"
	"planetshelf/internal/planner"
	"planetshelf/internal/scene"
)

func record(id string, shelveable bool, aux ...scene.AuxFile) *scene.Record {
	dir := filepath.Join("/data", "order-1", "PSScene4Band")
	return &scene.Record{
		ID:           id,
		ScenePath:    filepath.Join(dir, id+"_1B_AnalyticMS.tif"),
		ManifestPath: filepath.Join(dir, id+"_1B_AnalyticMS_manifest.json"),
		ItemType:     "PSScene4Band",
		Acquired:     time.Date(2019, 10, 9, 16, 4, 16, 0, time.UTC),
		Aux:          aux,
		Duplicates:   map[string][]string{},
		Classified:   true,
		Shelveable:   shelveable,
	}
}

func TestPlanPairsEveryFileOfShelveableScenes(t *testing.T) {
	dir := filepath.Join("/data", "order-1", "PSScene4Band")
	good := record("20191009_160416_100d", true,
		scene.AuxFile{Path: filepath.Join(dir, "20191009_160416_100d_1B_AnalyticMS_manifest.json"), Suffix: "manifest.json"},
		scene.AuxFile{Path: filepath.Join(dir, "20191009_160416_100d_1B_AnalyticMS_metadata.xml"), Suffix: "metadata.xml"},
	)
	bad := record("20191009_160417_100d", false)

	result := planner.Plan(logging.NewNop(), []*scene.Record{good, bad}, "/shelf", "/data")
	if len(result.Pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %+v", result.Pairs)
	}
	if len(result.Unshelveable) != 1 || result.Unshelveable[0] != bad {
		t.Fatalf("unexpected unshelveable %+v", result.Unshelveable)
	}

	wantDir := filepath.Join("/shelf", "PSScene4Band", "2019", "10", "09", "20191009_160416_100d")
	if result.Pairs[0].Src != good.ScenePath || result.Pairs[0].Dst != filepath.Join(wantDir, "20191009_160416_100d_1B_AnalyticMS.tif") {
		t.Fatalf("scene file must be planned first: %+v", result.Pairs[0])
	}
	for _, pair := range result.Pairs {
		if filepath.Dir(pair.Dst) != wantDir {
			t.Fatalf("pair outside destination dir: %+v", pair)
		}
		if pair.OrderDir != "order-1" || pair.SceneID != good.ID || pair.ManifestPath != good.ManifestPath {
			t.Fatalf("unexpected pair metadata: %+v", pair)
		}
	}
}

func TestPlanExcludesDuplicateAuxFiles(t *testing.T) {
	dir := filepath.Join("/data", "order-1", "PSScene4Band")
	xmlA := filepath.Join(dir, "a_metadata.xml")
	xmlB := filepath.Join(dir, "b_metadata.xml")
	rec := record("20191009_160416_100d", true,
		scene.AuxFile{Path: xmlA, Suffix: "metadata.xml"},
		scene.AuxFile{Path: xmlB, Suffix: "metadata.xml"},
	)
	rec.Duplicates["metadata.xml"] = []string{xmlA, xmlB}

	result := planner.Plan(logging.NewNop(), []*scene.Record{rec}, "/shelf", "/data")
	if len(result.Pairs) != 1 {
		t.Fatalf("expected only the scene file, got %+v", result.Pairs)
	}
	if len(result.Excluded) != 2 {
		t.Fatalf("expected 2 excluded files, got %v", result.Excluded)
	}
}

func TestPlanTreatsUnclassifiedAsUnshelveable(t *testing.T) {
	rec := record("20191009_160416_100d", true)
	rec.Classified = false
	result := planner.Plan(nil, []*scene.Record{rec}, "/shelf", "/data")
	if len(result.Pairs) != 0 || len(result.Unshelveable) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestOrderDir(t *testing.T) {
	cases := []struct {
		root, path, want string
	}{
		{"/data", "/data/order-1/PSScene4Band/a.tif", "order-1"},
		{"/data", "/data/a.tif", "a.tif"},
		{"/data", "/elsewhere/order-9/a.tif", "order-9"},
	}
	for _, tc := range cases {
		if got := planner.OrderDir(filepath.FromSlash(tc.root), filepath.FromSlash(tc.path)); got != tc.want {
			t.Fatalf("OrderDir(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
		}
	}
}
