package manifest

import (
	"errors"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"planetshelf/internal/faults"
	"planetshelf/internal/fileutil"
	"planetshelf/internal/logging"
)

// DeriveAction records what happened to one derived per-scene manifest.
type DeriveAction string

const (
	// DeriveWritten means the per-scene manifest was written by this call.
	DeriveWritten DeriveAction = "written"
	// DeriveExisting means the file already existed and overwrite was off.
	DeriveExisting DeriveAction = "existing"
	// DerivePlanned means a dry run would have written the file.
	DerivePlanned DeriveAction = "planned"
	// DeriveMissingScene means the scene file named by the section is absent.
	DeriveMissingScene DeriveAction = "missing_scene"
	// DeriveInvalid means the section lacked required fields.
	DeriveInvalid DeriveAction = "invalid"
	// DeriveFailed means writing the per-scene manifest failed.
	DeriveFailed DeriveAction = "failed"
)

// DeriveOptions controls DeriveSceneManifests.
type DeriveOptions struct {
	Overwrite bool
	DryRun    bool
}

// Derived describes one scene section of a master manifest.
type Derived struct {
	Path     string
	Manifest Manifest
	Action   DeriveAction
}

// DeriveResult summarizes one master manifest split.
type DeriveResult struct {
	Master  string
	Entries []Derived
	// Ignored counts non-scene sections (sidecars, udm masks).
	Ignored int
}

// Count returns the number of entries with the given action.
func (r DeriveResult) Count(action DeriveAction) int {
	n := 0
	for _, entry := range r.Entries {
		if entry.Action == action {
			n++
		}
	}
	return n
}

// Store locates, reads, and derives manifest files under a data directory.
type Store struct {
	logger *slog.Logger
}

// NewStore returns a Store logging through logger.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logging.NewComponentLogger(logger, "manifest")}
}

// FindMasterManifests returns every master manifest below root in traversal
// order. Derived per-scene manifests never match because their names carry a
// prefix before manifest.json.
func (s *Store) FindMasterManifests(root string) ([]string, error) {
	var masters []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.WarnWithContext(s.logger, "directory unreadable during manifest discovery", "manifest_walk_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the data directory"),
				logging.String(logging.FieldImpact, "orders below this directory are not derived"),
			)
			return nil
		}
		if !d.IsDir() && d.Name() == MasterName {
			masters = append(masters, path)
		}
		return nil
	})
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "discover", "walk data directory", root, err)
	}
	return masters, nil
}

// FindSceneManifests lazily yields every per-scene manifest below root in
// traversal order. Walk errors are yielded with the offending path; the
// sequence continues past them unless the consumer stops.
func (s *Store) FindSceneManifests(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(path, err) {
					return filepath.SkipAll
				}
				return nil
			}
			if d.IsDir() || !isSceneManifestName(d.Name()) {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func isSceneManifestName(name string) bool {
	return strings.HasSuffix(name, SceneSuffix) && !strings.HasPrefix(name, ".")
}

// Load parses one per-scene manifest file.
func (s *Store) Load(manifestPath string) (Manifest, error) {
	return Load(manifestPath)
}

// DeriveSceneManifests splits masterPath into per-scene manifests. Only image
// sections whose scene file exists are derived. Without Overwrite an existing
// per-scene manifest is left alone, so repeating the call performs no writes.
// With DryRun nothing is written and would-be files are reported as planned
// with their manifests held in memory.
func (s *Store) DeriveSceneManifests(masterPath string, opts DeriveOptions) (DeriveResult, error) {
	result := DeriveResult{Master: masterPath}
	master, err := LoadMaster(masterPath)
	if err != nil {
		return result, err
	}
	logger := s.logger.With(logging.String("master", masterPath))

	for _, section := range master.Files {
		if !IsSceneSection(section) {
			result.Ignored++
			continue
		}
		target := SceneManifestPath(masterPath, section)
		if err := section.Validate(); err != nil {
			logging.WarnWithContext(logger, "master manifest section invalid", "manifest_section_invalid",
				logging.String("section_path", section.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-download the order manifest"),
			)
			result.Entries = append(result.Entries, Derived{Path: target, Manifest: section, Action: DeriveInvalid})
			continue
		}

		scenePath := filepath.Join(filepath.Dir(masterPath), filepath.FromSlash(section.Path))
		if _, err := os.Stat(scenePath); err != nil {
			logging.WarnWithContext(logger, "scene file listed in master manifest not found", "manifest_scene_missing",
				logging.String("scene", scenePath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check whether the order download completed"),
			)
			result.Entries = append(result.Entries, Derived{Path: target, Manifest: section, Action: DeriveMissingScene})
			continue
		}

		entry := Derived{Path: target, Manifest: section}
		_, statErr := os.Stat(target)
		exists := statErr == nil
		switch {
		case exists && !opts.Overwrite:
			entry.Action = DeriveExisting
		case opts.DryRun:
			entry.Action = DerivePlanned
		default:
			err := s.write(target, section, opts.Overwrite)
			switch {
			case err == nil:
				entry.Action = DeriveWritten
				logger.Debug("scene manifest written", logging.String("path", target))
			case errors.Is(err, os.ErrExist):
				entry.Action = DeriveExisting
			default:
				entry.Action = DeriveFailed
				logging.ErrorWithContext(logger, "scene manifest write failed", "manifest_write_failed",
					logging.String("path", target),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check write permissions on the order directory"),
				)
			}
		}
		result.Entries = append(result.Entries, entry)
	}

	logger.Info("master manifest derived",
		logging.String(logging.FieldEventType, "manifest_derived"),
		logging.Int("written", result.Count(DeriveWritten)),
		logging.Int("existing", result.Count(DeriveExisting)),
		logging.Int("planned", result.Count(DerivePlanned)),
		logging.Int("missing_scene", result.Count(DeriveMissingScene)),
		logging.Int("failed", result.Count(DeriveFailed)),
		logging.Int("ignored", result.Ignored),
		logging.Bool(logging.FieldDryRun, opts.DryRun),
	)
	return result, nil
}

func (s *Store) write(target string, section Manifest, overwrite bool) error {
	data, err := Encode(section)
	if err != nil {
		return faults.Wrap(faults.ErrManifestParse, "derive", "encode scene manifest", target, err)
	}
	if err := fileutil.WriteFileAtomic(target, data, 0o644, overwrite); err != nil {
		if errors.Is(err, os.ErrExist) {
			return os.ErrExist
		}
		return faults.Wrap(faults.ErrTransfer, "derive", "write scene manifest", target, err)
	}
	return nil
}
