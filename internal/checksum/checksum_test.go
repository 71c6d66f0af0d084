package checksum_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"planetshelf/internal/checksum"
	"planetshelf/internal/faults"
	"planetshelf/internal/logging"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.tif")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDigestKnownValues(t *testing.T) {
	path := writeFile(t, []byte("hello world"))
	cases := map[checksum.Algorithm]string{
		checksum.MD5:    "5eb63bbbe01eeed093cb22bb8f5acdc3",
		checksum.SHA256: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	}
	for algo, want := range cases {
		got, err := checksum.Digest(path, algo)
		if err != nil {
			t.Fatalf("Digest(%s): %v", algo, err)
		}
		if got != want {
			t.Fatalf("Digest(%s) = %s, want %s", algo, got, want)
		}
	}
}

func TestDigestSpansChunks(t *testing.T) {
	data := []byte(strings.Repeat("a", checksum.ChunkSize*2+17))
	path := writeFile(t, data)
	first, err := checksum.Digest(path, checksum.MD5)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	second, err := checksum.Digest(path, checksum.MD5)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if first != second || len(first) != 32 {
		t.Fatalf("unstable digest %q vs %q", first, second)
	}
}

func TestVerifyMatchIgnoresCase(t *testing.T) {
	path := writeFile(t, []byte("hello world"))
	ok, err := checksum.Verify(logging.NewNop(), path, " 5EB63BBBE01EEED093CB22BB8F5ACDC3\n", checksum.MD5)
	if err != nil || !ok {
		t.Fatalf("expected verified, got ok=%v err=%v", ok, err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	path := writeFile(t, []byte("hello world"))
	ok, err := checksum.Verify(logging.NewNop(), path, "00000000000000000000000000000000", checksum.MD5)
	if err != nil {
		t.Fatalf("mismatch must not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch")
	}
}

func TestVerifyMissingFile(t *testing.T) {
	_, err := checksum.Verify(nil, filepath.Join(t.TempDir(), "absent.tif"), "abc", checksum.MD5)
	if !errors.Is(err, faults.ErrChecksumIO) {
		t.Fatalf("expected checksum io error, got %v", err)
	}
}

func TestParse(t *testing.T) {
	if algo, err := checksum.Parse("SHA256"); err != nil || algo != checksum.SHA256 {
		t.Fatalf("Parse(SHA256) = %v, %v", algo, err)
	}
	if algo, err := checksum.Parse(""); err != nil || algo != checksum.MD5 {
		t.Fatalf("Parse(\"\") = %v, %v", algo, err)
	}
	if _, err := checksum.Parse("crc32"); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
