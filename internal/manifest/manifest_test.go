package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"planetshelf/internal/faults"
	"planetshelf/internal/manifest"
)

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "PSScene4Band", "x_1B_AnalyticMS_manifest.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidManifest(t *testing.T) {
	path := writeJSON(t, `{
  "path": "PSScene4Band/x_1B_AnalyticMS.tif",
  "media_type": "image/tiff",
  "size": 12,
  "digests": {"md5": "ABC", "sha256": "def"},
  "annotations": {
    "planet/asset_type": "basic_analytic",
    "planet/bundle_type": "basic_analytic",
    "planet/item_id": "x",
    "planet/item_type": "PSScene4Band"
  }
}`)
	m, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Size != 12 || m.AssetType() != "basic_analytic" || m.ItemID() != "x" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if digest, ok := m.Digest("MD5"); !ok || digest != "abc" {
		t.Fatalf("unexpected md5 digest %q %v", digest, ok)
	}
	if _, ok := m.Digest("sha512"); ok {
		t.Fatal("sha512 digest should be absent")
	}
}

func TestLoadRejectsIncompleteManifests(t *testing.T) {
	cases := map[string]string{
		"malformed":          `{"path":`,
		"missing path":       `{"digests":{"md5":"a"},"annotations":{"planet/asset_type":"a","planet/bundle_type":"b","planet/item_id":"c","planet/item_type":"d"}}`,
		"missing digests":    `{"path":"a.tif","annotations":{"planet/asset_type":"a","planet/bundle_type":"b","planet/item_id":"c","planet/item_type":"d"}}`,
		"digest wrong type":  `{"path":"a.tif","digests":["md5"],"annotations":{"planet/asset_type":"a","planet/bundle_type":"b","planet/item_id":"c","planet/item_type":"d"}}`,
		"missing annotation": `{"path":"a.tif","digests":{"md5":"a"},"annotations":{"planet/asset_type":"a","planet/item_id":"c","planet/item_type":"d"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := manifest.Load(writeJSON(t, body))
			if !errors.Is(err, faults.ErrManifestParse) {
				t.Fatalf("expected manifest parse error, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := manifest.Load(filepath.Join(t.TempDir(), "absent_manifest.json")); !errors.Is(err, faults.ErrManifestParse) {
		t.Fatalf("expected manifest parse error, got %v", err)
	}
}

func TestSceneFilePathResolution(t *testing.T) {
	cases := []struct {
		manifestPath string
		rel          string
		want         string
	}{
		{"/data/order/PSScene4Band/a_manifest.json", "PSScene4Band/a.tif", "/data/order/PSScene4Band/a.tif"},
		{"/data/order/a_manifest.json", "a.tif", "/data/order/a.tif"},
		{"/data/order/files/PSScene/a_manifest.json", "files/PSScene/a.tif", "/data/order/files/PSScene/a.tif"},
		{"/data/order/x/a_manifest.json", "/abs/a.tif", "/abs/a.tif"},
	}
	for _, tc := range cases {
		got := manifest.SceneFilePath(filepath.FromSlash(tc.manifestPath), manifest.Manifest{Path: tc.rel})
		if got != filepath.FromSlash(tc.want) {
			t.Fatalf("SceneFilePath(%q, %q) = %q, want %q", tc.manifestPath, tc.rel, got, tc.want)
		}
	}
}

func TestSceneManifestPath(t *testing.T) {
	got := manifest.SceneManifestPath("/data/order/manifest.json", manifest.Manifest{Path: "PSScene4Band/20191009_160416_100d_1B_AnalyticMS.tif"})
	want := filepath.FromSlash("/data/order/PSScene4Band/20191009_160416_100d_1B_AnalyticMS_manifest.json")
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestIsSceneSection(t *testing.T) {
	cases := []struct {
		m    manifest.Manifest
		want bool
	}{
		{manifest.Manifest{Path: "a/x_AnalyticMS.tif", MediaType: "image/tiff"}, true},
		{manifest.Manifest{Path: "a/x_AnalyticMS_DN_udm.tif", MediaType: "image/tiff"}, false},
		{manifest.Manifest{Path: "a/x_metadata.xml", MediaType: "text/xml"}, false},
	}
	for _, tc := range cases {
		if got := manifest.IsSceneSection(tc.m); got != tc.want {
			t.Fatalf("IsSceneSection(%+v) = %v, want %v", tc.m, got, tc.want)
		}
	}
}
