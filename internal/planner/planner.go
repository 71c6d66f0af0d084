package planner

import (
	"log/slog"
	"path/filepath"
	"strings"

	"planetshelf/internal/logging"
	"planetshelf/internal/scene"
)

// Pair is one file to move onto the shelf.
type Pair struct {
	Src          string
	Dst          string
	SceneID      string
	// ManifestPath names the record the pair belongs to. Scene ids are not
	// unique across processing levels.
	ManifestPath string
	OrderDir     string
}

// Result holds the planned pairs and the records left unpaired.
type Result struct {
	Pairs        []Pair
	Unshelveable []*scene.Record
	// Excluded lists duplicate aux files that were left out of the plan.
	Excluded []string
}

// Plan emits one pair per file of every shelveable record, in record order:
// the scene file first, then its aux files. Aux files that are one of several
// matches for a required suffix are excluded and logged. Records that are not
// shelveable, or were never classified, are returned unpaired.
func Plan(logger *slog.Logger, records []*scene.Record, destinationRoot, dataRoot string) Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "planner")

	var result Result
	for _, rec := range records {
		if !rec.Classified || !rec.Shelveable {
			result.Unshelveable = append(result.Unshelveable, rec)
			continue
		}
		dstDir := rec.Destination(destinationRoot)
		order := OrderDir(dataRoot, rec.ScenePath)

		result.Pairs = append(result.Pairs, Pair{
			Src:      rec.ScenePath,
			Dst:      filepath.Join(dstDir, filepath.Base(rec.ScenePath)),
			SceneID:      rec.ID,
			ManifestPath: rec.ManifestPath,
			OrderDir:     order,
		})
		for _, aux := range rec.Aux {
			if rec.IsDuplicate(aux.Path) {
				logging.WarnWithContext(logger, "duplicate aux file excluded from shelving", "aux_excluded",
					logging.String(logging.FieldSceneID, rec.ID),
					logging.String("path", aux.Path),
					logging.String("suffix", aux.Suffix),
					logging.String(logging.FieldErrorHint, "keep a single file per required suffix"),
					logging.String(logging.FieldImpact, "the file stays in the data directory"),
				)
				result.Excluded = append(result.Excluded, aux.Path)
				continue
			}
			result.Pairs = append(result.Pairs, Pair{
				Src:      aux.Path,
				Dst:      filepath.Join(dstDir, filepath.Base(aux.Path)),
				SceneID:      rec.ID,
				ManifestPath: rec.ManifestPath,
				OrderDir:     order,
			})
		}
	}

	logger.Debug("transfer plan built",
		logging.Int("pairs", len(result.Pairs)),
		logging.Int("unshelveable", len(result.Unshelveable)),
		logging.Int("excluded", len(result.Excluded)),
	)
	return result
}

// OrderDir returns the first path component of path relative to dataRoot,
// which names the order directory a file was delivered in. Paths outside
// dataRoot yield their parent directory's base name.
func OrderDir(dataRoot, path string) string {
	rel, err := filepath.Rel(dataRoot, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(filepath.Dir(path))
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}
