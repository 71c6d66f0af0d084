package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"strings"

	"planetshelf/internal/faults"
	"planetshelf/internal/logging"
)

// ChunkSize is the read size used while digesting.
const ChunkSize = 1 << 20

// Algorithm names a supported digest algorithm.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

// Parse maps a configuration value onto an Algorithm.
func Parse(value string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(value))) {
	case MD5, "":
		return MD5, nil
	case SHA256:
		return SHA256, nil
	default:
		return "", faults.Wrap(faults.ErrConfiguration, "config", "parse checksum algorithm", fmt.Sprintf("unsupported algorithm %q", value), nil)
	}
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", string(a))
	}
}

// Digest returns the lower-case hex digest of the file at path.
func Digest(path string, algo Algorithm) (string, error) {
	h, err := algo.newHash()
	if err != nil {
		return "", faults.Wrap(faults.ErrConfiguration, "checksum", "select algorithm", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", faults.Wrap(faults.ErrChecksumIO, "checksum", "open", path, err)
	}
	defer f.Close()

	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", faults.Wrap(faults.ErrChecksumIO, "checksum", "read", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify digests path and compares it with expected, ignoring case and
// surrounding whitespace. A mismatch is logged and reported as false with a
// nil error.
func Verify(logger *slog.Logger, path, expected string, algo Algorithm) (bool, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	actual, err := Digest(path, algo)
	if err != nil {
		return false, err
	}
	want := strings.ToLower(strings.TrimSpace(expected))
	if actual == want {
		logger.Debug("checksum verified",
			logging.String("path", path),
			logging.String("algorithm", string(algo)),
		)
		return true, nil
	}
	logging.WarnWithContext(logger, "checksum mismatch", "checksum_mismatch",
		logging.String("path", path),
		logging.String("algorithm", string(algo)),
		logging.String("expected", want),
		logging.String("actual", actual),
		logging.String(logging.FieldErrorHint, "re-download the scene; the local copy differs from the manifest"),
		logging.String(logging.FieldImpact, "scene is not shelved"),
	)
	return false, nil
}
