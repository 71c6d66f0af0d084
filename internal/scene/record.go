package scene

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"planetshelf/internal/checksum"
	"planetshelf/internal/faults"
	"planetshelf/internal/logging"
	"planetshelf/internal/manifest"
)

// ChecksumState is the tri-state outcome of digest verification.
type ChecksumState int

const (
	ChecksumNotChecked ChecksumState = iota
	ChecksumVerified
	ChecksumFailed
)

func (s ChecksumState) String() string {
	switch s {
	case ChecksumVerified:
		return "verified"
	case ChecksumFailed:
		return "failed"
	default:
		return "not_checked"
	}
}

// AuxFile is a file delivered alongside a scene. Suffix holds the required
// suffix the name ends with, or "" when it matches none.
type AuxFile struct {
	Path   string
	Suffix string
}

// Options configure record construction.
type Options struct {
	Levels           []string
	RequiredSuffixes []string
	Logger           *slog.Logger
	// Planned lists files a dry run would have written. Aux discovery treats
	// them as present.
	Planned []string
}

// Record is one scene with everything known about it.
type Record struct {
	ID           string
	ScenePath    string
	ManifestPath string
	Manifest     manifest.Manifest

	Aux        []AuxFile
	Duplicates map[string][]string

	ItemType    string
	BundleType  string
	AssetType   string
	ItemID      string
	Platform    string
	Instrument  string
	ProductType string
	StripID     string
	Acquired    time.Time
	Digests     map[string]string

	Missing bool

	Checksum          ChecksumState
	ChecksumAlgorithm checksum.Algorithm
	ChecksumErr       error

	Classified bool
	Shelveable bool
	Reasons    []string
}

// New builds a record from a parsed per-scene manifest. A missing scene file
// produces a record with Missing set rather than an error. New fails only
// when no scene identifier can be resolved from either the file name or the
// item_id annotation.
func New(manifestPath string, m manifest.Manifest, opts Options) (*Record, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	suffixes := opts.RequiredSuffixes
	if len(suffixes) == 0 {
		suffixes = DefaultRequiredSuffixes()
	}

	r := &Record{
		ScenePath:    manifest.SceneFilePath(manifestPath, m),
		ManifestPath: manifestPath,
		Manifest:     m,
		ItemType:     m.ItemType(),
		BundleType:   m.BundleType(),
		AssetType:    m.AssetType(),
		ItemID:       m.ItemID(),
		Digests:      m.Digests,
		Duplicates:   map[string][]string{},
	}

	id, err := IdentifierFromName(r.ScenePath, opts.Levels)
	if err != nil {
		if r.ItemID == "" {
			return nil, faults.Wrap(faults.ErrManifestParse, "load", "resolve scene identifier", manifestPath, err)
		}
		logger.Debug("scene identifier taken from item_id annotation",
			logging.String("scene", r.ScenePath),
			logging.String("item_id", r.ItemID),
		)
		id = r.ItemID
	}
	r.ID = id
	logger = logger.With(logging.String(logging.FieldSceneID, id))

	if info, statErr := os.Stat(r.ScenePath); statErr != nil || info.IsDir() {
		r.Missing = true
		logging.WarnWithContext(logger, "scene file not found", "scene_missing",
			logging.String("scene", r.ScenePath),
			logging.String("manifest", manifestPath),
			logging.String(logging.FieldErrorHint, "the manifest names a file that is not on disk"),
			logging.String(logging.FieldImpact, "scene is not shelved"),
		)
	}

	r.discoverAux(logger, suffixes, opts.Planned)
	r.loadSidecars(logger)
	return r, nil
}

// discoverAux collects sibling files whose names begin with the scene file's
// stem, the bundle's metadata xml, and the <id>_metadata.json file, tagging
// each with the first required suffix it ends with.
func (r *Record) discoverAux(logger *slog.Logger, suffixes, planned []string) {
	dir := filepath.Dir(r.ScenePath)
	base := filepath.Base(r.ScenePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.WarnWithContext(logger, "scene directory unreadable", "scene_dir_unreadable",
			logging.String("dir", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the order directory"),
		)
		return
	}

	var paths []string
	metadataJSON := r.ID + "_metadata.json"
	metadataXML := MetadataXMLName(r.BundleType, stem)
	matches := func(name string) bool {
		return name != base && !strings.HasPrefix(name, ".") &&
			(strings.HasPrefix(name, stem) || name == metadataXML || name == metadataJSON)
	}
	for _, entry := range entries {
		if !entry.IsDir() && matches(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	for _, path := range planned {
		if filepath.Dir(path) == dir && matches(filepath.Base(path)) && !slices.Contains(paths, path) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	for _, path := range paths {
		aux := AuxFile{Path: path}
		for _, suffix := range suffixes {
			if strings.HasSuffix(filepath.Base(path), suffix) {
				aux.Suffix = suffix
				break
			}
		}
		r.Aux = append(r.Aux, aux)
	}

	for _, suffix := range suffixes {
		matches := r.AuxWithSuffix(suffix)
		if len(matches) > 1 {
			r.Duplicates[suffix] = matches
			logging.WarnWithContext(logger, "multiple files match required suffix", "aux_duplicate",
				logging.String("suffix", suffix),
				logging.String("files", strings.Join(matches, ", ")),
				logging.String(logging.FieldErrorHint, "remove the stray copies from the order directory"),
				logging.String(logging.FieldImpact, "duplicate files are not shelved"),
			)
		}
	}
}

// AuxWithSuffix returns the aux file paths tagged with suffix.
func (r *Record) AuxWithSuffix(suffix string) []string {
	var out []string
	for _, aux := range r.Aux {
		if aux.Suffix == suffix {
			out = append(out, aux.Path)
		}
	}
	return out
}

// IsDuplicate reports whether path is one of several matches for a required
// suffix.
func (r *Record) IsDuplicate(path string) bool {
	for _, dups := range r.Duplicates {
		if slices.Contains(dups, path) {
			return true
		}
	}
	return false
}

// Files returns the scene file followed by every aux file, duplicates
// included.
func (r *Record) Files() []string {
	files := make([]string, 0, len(r.Aux)+1)
	if !r.Missing {
		files = append(files, r.ScenePath)
	}
	for _, aux := range r.Aux {
		files = append(files, aux.Path)
	}
	return files
}

func (r *Record) loadSidecars(logger *slog.Logger) {
	var meta Sidecar
	if xmlPaths := r.AuxWithSuffix("metadata.xml"); len(xmlPaths) == 1 {
		parsed, err := parseSidecarFile(xmlPaths[0], ParseXML)
		if err != nil {
			logging.WarnWithContext(logger, "metadata xml unreadable", "sidecar_xml_invalid",
				logging.String("path", xmlPaths[0]),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-download the scene metadata"),
				logging.String(logging.FieldImpact, "acquisition metadata falls back to the json sidecar"),
			)
		}
		meta = parsed
	}

	jsonPath := filepath.Join(filepath.Dir(r.ScenePath), r.ID+"_metadata.json")
	if _, err := os.Stat(jsonPath); err == nil {
		parsed, err := parseSidecarFile(jsonPath, ParseJSON)
		if err != nil {
			logger.Debug("metadata json unreadable", logging.String("path", jsonPath), logging.Error(err))
		}
		meta = meta.merge(parsed)
	}

	if meta.Acquired.IsZero() {
		if t, ok := acquiredFromIdentifier(r.ID); ok {
			meta.Acquired = t
		}
	}

	r.Platform = meta.Platform
	r.Instrument = meta.Instrument
	r.ProductType = meta.ProductType
	r.StripID = meta.StripID
	r.Acquired = meta.Acquired
}

// Verify digests the scene file and records the outcome. Calling it again
// recomputes the digest, so the result only changes if the file does.
func (r *Record) Verify(logger *slog.Logger, algo checksum.Algorithm) ChecksumState {
	if logger == nil {
		logger = logging.NewNop()
	}
	r.ChecksumAlgorithm = algo
	r.ChecksumErr = nil

	expected, ok := r.Manifest.Digest(string(algo))
	switch {
	case !ok:
		r.Checksum = ChecksumFailed
		r.ChecksumErr = faults.Wrap(faults.ErrManifestParse, "verify", "lookup digest", fmt.Sprintf("manifest has no %s digest", algo), nil)
	case r.Missing:
		r.Checksum = ChecksumFailed
		r.ChecksumErr = faults.Wrap(faults.ErrChecksumIO, "verify", "open", r.ScenePath+": scene file missing", nil)
	default:
		verified, err := checksum.Verify(logger.With(logging.String(logging.FieldSceneID, r.ID)), r.ScenePath, expected, algo)
		switch {
		case err != nil:
			r.Checksum = ChecksumFailed
			r.ChecksumErr = err
		case verified:
			r.Checksum = ChecksumVerified
		default:
			r.Checksum = ChecksumFailed
		}
	}

	if r.ChecksumErr != nil {
		logging.WarnWithContext(logger, "checksum could not be verified", "checksum_error",
			logging.String(logging.FieldSceneID, r.ID),
			logging.String("scene", r.ScenePath),
			logging.Error(r.ChecksumErr),
			logging.String(logging.FieldErrorHint, "check that the scene file is readable and the manifest lists a digest"),
			logging.String(logging.FieldImpact, "scene is not shelved"),
		)
	}
	return r.Checksum
}
