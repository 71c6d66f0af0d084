package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrManifestParse marks malformed or incomplete manifest files.
	ErrManifestParse = errors.New("manifest parse error")
	// ErrChecksumIO marks a scene file that could not be read for digesting.
	ErrChecksumIO = errors.New("checksum io error")
	// ErrTransfer marks a failed copy, link, move, or removal of one file.
	ErrTransfer = errors.New("transfer error")
	// ErrConfiguration marks unusable settings, missing directories, or an
	// unsupported transfer method. Fatal before any transfer begins.
	ErrConfiguration = errors.New("configuration error")
	// ErrNoScenes marks a live run that discovered zero scenes.
	ErrNoScenes = errors.New("no scenes found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransfer
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must terminate the run with a non-zero status.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNoScenes)
}

// Kind returns a short label for the marker carried by err, used in logs and
// summaries. Unknown errors report "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrManifestParse):
		return "manifest_parse"
	case errors.Is(err, ErrChecksumIO):
		return "checksum_io"
	case errors.Is(err, ErrTransfer):
		return "transfer"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNoScenes):
		return "no_scenes"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "shelving failure"
	}
	return strings.Join(parts, ": ")
}
