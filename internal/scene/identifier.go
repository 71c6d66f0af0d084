package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLevels are the product level tokens that separate a scene identifier
// from the rest of a Planet file name.
var DefaultLevels = []string{"1B", "3B"}

var errNoLevel = errors.New("no product level token in name")

// IdentifierFromName extracts the scene identifier from a scene file name by
// splitting the stem on the first _<level>_ token found, in the order the
// levels are given. For 20191009_160416_100d_1B_AnalyticMS.tif the identifier
// is 20191009_160416_100d.
func IdentifierFromName(name string, levels []string) (string, error) {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, level := range levels {
		token := "_" + strings.TrimSpace(level) + "_"
		if idx := strings.Index(stem, token); idx > 0 {
			return stem[:idx], nil
		}
	}
	return "", fmt.Errorf("%s: %w (levels %s)", base, errNoLevel, strings.Join(levels, ","))
}

// acquiredFromIdentifier reads the YYYYMMDD_HHMMSS prefix every PlanetScope
// identifier starts with.
func acquiredFromIdentifier(id string) (time.Time, bool) {
	if len(id) >= len("20060102_150405") {
		if t, err := time.ParseInLocation("20060102_150405", id[:15], time.UTC); err == nil {
			return t, true
		}
	}
	if len(id) >= len("20060102") {
		if t, err := time.ParseInLocation("20060102", id[:8], time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
