package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"planetshelf/internal/checksum"
	"planetshelf/internal/manifest"
)

// DefaultItemType is the item type fixture scenes use unless overridden.
const DefaultItemType = "PSScene4Band"

// Scene describes one fixture scene inside an order directory.
type Scene struct {
	// Stem is the scene file name without extension, for example
	// 20191009_160416_100d_1B_AnalyticMS.
	Stem       string
	ItemType   string
	BundleType string
	Content    []byte
	// MD5 overrides the digest recorded in the manifest.
	MD5 string
	// NoXML omits the metadata.xml sidecar from disk and from the master.
	NoXML bool
	// WithUDM adds an unusable data mask listed in the master manifest.
	WithUDM bool
	// WithMetadataJSON writes <id>_metadata.json beside the scene.
	WithMetadataJSON bool
	// XML replaces the generated metadata.xml body.
	XML string
}

func (s Scene) withDefaults() Scene {
	if s.ItemType == "" {
		s.ItemType = DefaultItemType
	}
	if s.BundleType == "" {
		s.BundleType = "analytic"
	}
	if s.Content == nil {
		s.Content = []byte("scene:" + s.Stem)
	}
	return s
}

// ID returns the scene identifier embedded in the stem.
func (s Scene) ID() string {
	parts := strings.SplitN(s.Stem, "_", 4)
	if len(parts) < 3 {
		return s.Stem
	}
	return strings.Join(parts[:3], "_")
}

// XMLName returns the metadata xml file name Planet delivers for s. Surface
// reflectance bundles drop the _SR token from the scene stem.
func (s Scene) XMLName() string {
	s = s.withDefaults()
	if s.BundleType == "analytic_sr" {
		return strings.TrimSuffix(s.Stem, "_SR") + "_metadata.xml"
	}
	return s.Stem + "_metadata.xml"
}

// RelPath returns the scene file path relative to its order directory.
func (s Scene) RelPath() string {
	s = s.withDefaults()
	return path.Join(s.ItemType, s.Stem+".tif")
}

// ScenePath returns the absolute scene file path for s inside order.
func ScenePath(dataRoot, order string, s Scene) string {
	return filepath.Join(dataRoot, order, filepath.FromSlash(s.RelPath()))
}

// SceneManifestPath returns where the derived manifest for s belongs.
func SceneManifestPath(dataRoot, order string, s Scene) string {
	s = s.withDefaults()
	return filepath.Join(dataRoot, order, s.ItemType, s.Stem+manifest.SceneSuffix)
}

// WriteOrder lays out an order directory holding the given scenes and a
// master manifest describing them. It returns the master manifest path.
func WriteOrder(t testing.TB, dataRoot, order string, scenes ...Scene) string {
	t.Helper()

	orderDir := filepath.Join(dataRoot, order)
	master := manifest.Master{Name: order}
	for _, s := range scenes {
		master.Files = append(master.Files, writeScene(t, orderDir, s)...)
	}

	data, err := json.MarshalIndent(master, "", "  ")
	if err != nil {
		t.Fatalf("marshal master manifest: %v", err)
	}
	masterPath := filepath.Join(orderDir, manifest.MasterName)
	WriteBytes(t, masterPath, data)
	return masterPath
}

// WriteSceneManifests writes an order like WriteOrder and derives the
// per-scene manifests directly, returning their paths in scene order.
func WriteSceneManifests(t testing.TB, dataRoot, order string, scenes ...Scene) []string {
	t.Helper()

	orderDir := filepath.Join(dataRoot, order)
	var paths []string
	for _, s := range scenes {
		sections := writeScene(t, orderDir, s)
		data, err := manifest.Encode(sections[0])
		if err != nil {
			t.Fatalf("encode scene manifest: %v", err)
		}
		target := SceneManifestPath(dataRoot, order, s)
		WriteBytes(t, target, data)
		paths = append(paths, target)
	}
	return paths
}

func writeScene(t testing.TB, orderDir string, s Scene) []manifest.Manifest {
	t.Helper()
	s = s.withDefaults()

	rel := s.RelPath()
	scenePath := filepath.Join(orderDir, filepath.FromSlash(rel))
	WriteBytes(t, scenePath, s.Content)

	sections := []manifest.Manifest{section(t, scenePath, rel, "image/tiff", s)}
	if s.MD5 != "" {
		sections[0].Digests["md5"] = s.MD5
	}

	if !s.NoXML {
		body := s.XML
		if body == "" {
			body = SceneXML("PS2", acquiredFromStem(s.Stem), "2715290")
		}
		xmlRel := path.Join(s.ItemType, s.XMLName())
		xmlPath := filepath.Join(orderDir, filepath.FromSlash(xmlRel))
		WriteBytes(t, xmlPath, []byte(body))
		sections = append(sections, section(t, xmlPath, xmlRel, "text/xml", s))
	}
	if s.WithUDM {
		udmRel := path.Join(s.ItemType, s.Stem+"_DN_udm.tif")
		udmPath := filepath.Join(orderDir, filepath.FromSlash(udmRel))
		WriteBytes(t, udmPath, []byte("udm:"+s.Stem))
		sections = append(sections, section(t, udmPath, udmRel, "image/tiff", s))
	}
	if s.WithMetadataJSON {
		body := fmt.Sprintf(`{"id":%q,"properties":{"acquired":%q,"instrument":"PS2.SD","strip_id":"5555"}}`, s.ID(), acquiredFromStem(s.Stem))
		WriteBytes(t, filepath.Join(filepath.Dir(scenePath), s.ID()+"_metadata.json"), []byte(body))
	}
	return sections
}

func section(t testing.TB, filePath, rel, mediaType string, s Scene) manifest.Manifest {
	t.Helper()
	md5sum, err := checksum.Digest(filePath, checksum.MD5)
	if err != nil {
		t.Fatalf("digest %s: %v", filePath, err)
	}
	sha, err := checksum.Digest(filePath, checksum.SHA256)
	if err != nil {
		t.Fatalf("digest %s: %v", filePath, err)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		t.Fatalf("stat %s: %v", filePath, err)
	}
	return manifest.Manifest{
		Path:      rel,
		MediaType: mediaType,
		Size:      info.Size(),
		Digests:   map[string]string{"md5": md5sum, "sha256": sha},
		Annotations: map[string]string{
			manifest.AnnotationAssetType:  s.BundleType,
			manifest.AnnotationBundleType: s.BundleType,
			manifest.AnnotationItemID:     s.ID(),
			manifest.AnnotationItemType:   s.ItemType,
		},
	}
}

// acquiredFromStem renders the stem's YYYYMMDD_HHMMSS prefix as RFC 3339.
func acquiredFromStem(stem string) string {
	if len(stem) < 15 {
		return "2019-10-09T16:04:16+00:00"
	}
	return fmt.Sprintf("%s-%s-%sT%s:%s:%s+00:00", stem[0:4], stem[4:6], stem[6:8], stem[9:11], stem[11:13], stem[13:15])
}

// SceneXML renders a minimal Planet metadata.xml document.
func SceneXML(instrument, acquired, stripID string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<ps:EarthObservation xmlns:ps="http://schemas.planet.com/ps/v1/planet_product_metadata_geocorrected_level" xmlns:eop="http://earth.esa.int/eop" xmlns:gml="http://www.opengis.net/gml">
  <gml:using>
    <eop:EarthObservationEquipment>
      <eop:platform>
        <eop:Platform>
          <eop:shortName>PlanetScope</eop:shortName>
          <eop:serialIdentifier>100d</eop:serialIdentifier>
        </eop:Platform>
      </eop:platform>
      <eop:instrument>
        <eop:Instrument>
          <eop:shortName>` + instrument + `</eop:shortName>
        </eop:Instrument>
      </eop:instrument>
      <eop:acquisitionParameters>
        <ps:Acquisition>
          <ps:acquisitionDateTime>` + acquired + `</ps:acquisitionDateTime>
        </ps:Acquisition>
      </eop:acquisitionParameters>
    </eop:EarthObservationEquipment>
  </gml:using>
  <gml:metaDataProperty>
    <ps:EarthObservationMetaData>
      <eop:productType>L1B</eop:productType>
      <ps:stripId>` + stripID + `</ps:stripId>
    </ps:EarthObservationMetaData>
  </gml:metaDataProperty>
</ps:EarthObservation>
`
}
