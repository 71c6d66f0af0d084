package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"planetshelf/internal/faults"
)

const (
	// MasterName is the file name of an order-level master manifest.
	MasterName = "manifest.json"
	// SceneSuffix terminates every derived per-scene manifest file name.
	SceneSuffix = "_manifest.json"

	AnnotationAssetType  = "planet/asset_type"
	AnnotationBundleType = "planet/bundle_type"
	AnnotationItemID     = "planet/item_id"
	AnnotationItemType   = "planet/item_type"
)

var requiredAnnotations = []string{
	AnnotationAssetType,
	AnnotationBundleType,
	AnnotationItemID,
	AnnotationItemType,
}

// Manifest describes one delivered scene file.
type Manifest struct {
	Path        string            `json:"path"`
	MediaType   string            `json:"media_type,omitempty"`
	Size        int64             `json:"size"`
	Digests     map[string]string `json:"digests"`
	Annotations map[string]string `json:"annotations"`
}

// Master is an order-level manifest aggregating every delivered file.
type Master struct {
	Name  string     `json:"name,omitempty"`
	Files []Manifest `json:"files"`
}

func (m Manifest) AssetType() string  { return m.Annotations[AnnotationAssetType] }
func (m Manifest) BundleType() string { return m.Annotations[AnnotationBundleType] }
func (m Manifest) ItemID() string     { return m.Annotations[AnnotationItemID] }
func (m Manifest) ItemType() string   { return m.Annotations[AnnotationItemType] }

// Digest returns the expected digest for algorithm, lower-cased.
func (m Manifest) Digest(algorithm string) (string, bool) {
	value, ok := m.Digests[strings.ToLower(algorithm)]
	value = strings.ToLower(strings.TrimSpace(value))
	return value, ok && value != ""
}

// Validate reports the first missing or malformed required field.
func (m Manifest) Validate() error {
	if strings.TrimSpace(m.Path) == "" {
		return errors.New("missing path")
	}
	if len(m.Digests) == 0 {
		return errors.New("missing digests")
	}
	for algo, value := range m.Digests {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("empty %s digest", algo)
		}
	}
	if m.Annotations == nil {
		return errors.New("missing annotations")
	}
	for _, key := range requiredAnnotations {
		if strings.TrimSpace(m.Annotations[key]) == "" {
			return fmt.Errorf("missing annotation %s", key)
		}
	}
	return nil
}

// IsSceneSection reports whether a master manifest section describes a scene
// image rather than a sidecar or an unusable data mask.
func IsSceneSection(m Manifest) bool {
	return strings.HasPrefix(strings.ToLower(m.MediaType), "image") &&
		!strings.Contains(strings.ToLower(m.Path), "udm")
}

// Load parses one per-scene manifest file.
func Load(manifestPath string) (Manifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Manifest{}, faults.Wrap(faults.ErrManifestParse, "load", "read manifest", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, faults.Wrap(faults.ErrManifestParse, "load", "decode manifest", manifestPath, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, faults.Wrap(faults.ErrManifestParse, "load", "validate manifest", manifestPath, err)
	}
	return m, nil
}

// LoadMaster parses an order-level master manifest.
func LoadMaster(masterPath string) (Master, error) {
	data, err := os.ReadFile(masterPath)
	if err != nil {
		return Master{}, faults.Wrap(faults.ErrManifestParse, "derive", "read master manifest", masterPath, err)
	}
	var m Master
	if err := json.Unmarshal(data, &m); err != nil {
		return Master{}, faults.Wrap(faults.ErrManifestParse, "derive", "decode master manifest", masterPath, err)
	}
	if m.Files == nil {
		return Master{}, faults.Wrap(faults.ErrManifestParse, "derive", "validate master manifest", masterPath+": missing files", nil)
	}
	return m, nil
}

// SceneFilePath resolves the scene file a per-scene manifest describes.
// Relative paths are rooted at the order directory holding the master
// manifest, which sits as many levels above the per-scene manifest as the
// relative path has directory components.
func SceneFilePath(manifestPath string, m Manifest) string {
	rel := filepath.FromSlash(m.Path)
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	base := filepath.Dir(manifestPath)
	if relDir := path.Dir(path.Clean(filepath.ToSlash(m.Path))); relDir != "." {
		for range strings.Split(relDir, "/") {
			base = filepath.Dir(base)
		}
	}
	return filepath.Join(base, rel)
}

// SceneManifestPath returns where the per-scene manifest for a master section
// belongs: beside the scene file, named after the scene file's stem.
func SceneManifestPath(masterPath string, section Manifest) string {
	scene := filepath.Join(filepath.Dir(masterPath), filepath.FromSlash(section.Path))
	stem := strings.TrimSuffix(filepath.Base(scene), filepath.Ext(scene))
	return filepath.Join(filepath.Dir(scene), stem+SceneSuffix)
}

// Encode renders a per-scene manifest the way derived files are written.
func Encode(m Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
