package scene

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// metadataStemTrim holds, per bundle type, the trailing token of the scene
// file stem that the metadata xml name leaves out.
var metadataStemTrim = map[string]string{
	"analytic_sr": "_SR",
}

// MetadataXMLName returns the name of the metadata xml delivered beside a
// scene file with the given stem. Surface reflectance scenes share the xml of
// their AnalyticMS base, so 20200101_010101_0f4e_3B_AnalyticMS_SR pairs with
// 20200101_010101_0f4e_3B_AnalyticMS_metadata.xml.
func MetadataXMLName(bundleType, stem string) string {
	return strings.TrimSuffix(stem, metadataStemTrim[bundleType]) + "_metadata.xml"
}

// Sidecar carries the acquisition metadata read from a scene's XML or JSON
// metadata file. Zero values mean the field was absent.
type Sidecar struct {
	Platform    string
	Instrument  string
	ProductType string
	StripID     string
	Acquired    time.Time
}

func (s Sidecar) merge(fallback Sidecar) Sidecar {
	if s.Platform == "" {
		s.Platform = fallback.Platform
	}
	if s.Instrument == "" {
		s.Instrument = fallback.Instrument
	}
	if s.ProductType == "" {
		s.ProductType = fallback.ProductType
	}
	if s.StripID == "" {
		s.StripID = fallback.StripID
	}
	if s.Acquired.IsZero() {
		s.Acquired = fallback.Acquired
	}
	return s
}

// ParseXML stream-parses a Planet metadata.xml sidecar. Elements are matched
// by local name so namespace prefixes do not matter. The instrument and
// platform both use shortName and are told apart by their parent element.
func ParseXML(r io.Reader) (Sidecar, error) {
	dec := xml.NewDecoder(r)
	var (
		out   Sidecar
		stack []string
		text  strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("decode metadata xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			stack = append(stack, el.Name.Local)
			text.Reset()
		case xml.CharData:
			text.Write(el)
		case xml.EndElement:
			value := strings.TrimSpace(text.String())
			text.Reset()
			parent := ""
			if len(stack) >= 2 {
				parent = stack[len(stack)-2]
			}
			if value != "" {
				assignXML(&out, el.Name.Local, parent, value)
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if out == (Sidecar{}) {
		return out, errors.New("metadata xml carries no recognised fields")
	}
	return out, nil
}

func assignXML(out *Sidecar, name, parent, value string) {
	switch name {
	case "shortName":
		switch parent {
		case "Instrument":
			if out.Instrument == "" {
				out.Instrument = value
			}
		case "Platform":
			if out.Platform == "" {
				out.Platform = value
			}
		}
	case "acquisitionDateTime":
		if t, ok := parseTimestamp(value); ok && out.Acquired.IsZero() {
			out.Acquired = t
		}
	case "stripId":
		if out.StripID == "" {
			out.StripID = value
		}
	case "productType":
		if out.ProductType == "" {
			out.ProductType = value
		}
	}
}

type metadataJSON struct {
	ID         string `json:"id"`
	Properties struct {
		Acquired   string `json:"acquired"`
		Instrument string `json:"instrument"`
		StripID    any    `json:"strip_id"`
		Provider   string `json:"provider"`
		Satellite  string `json:"satellite_id"`
	} `json:"properties"`
}

// ParseJSON reads the <id>_metadata.json sidecar delivered with an order.
func ParseJSON(r io.Reader) (Sidecar, error) {
	var doc metadataJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Sidecar{}, fmt.Errorf("decode metadata json: %w", err)
	}
	out := Sidecar{
		Instrument: strings.TrimSpace(doc.Properties.Instrument),
		Platform:   strings.TrimSpace(doc.Properties.Provider),
	}
	switch v := doc.Properties.StripID.(type) {
	case string:
		out.StripID = strings.TrimSpace(v)
	case float64:
		out.StripID = fmt.Sprintf("%.0f", v)
	}
	if t, ok := parseTimestamp(doc.Properties.Acquired); ok {
		out.Acquired = t
	}
	return out, nil
}

func parseSidecarFile(path string, parse func(io.Reader) (Sidecar, error)) (Sidecar, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sidecar{}, err
	}
	defer f.Close()
	return parse(f)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999Z0700",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
