package scene

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"planetshelf/internal/logging"
)

var supportedBundleTypes = []string{
	"analytic",
	"analytic_sr",
	"basic_analytic",
	"basic_analytic_nitf",
	"basic_uncalibrated_dn",
	"basic_uncalibrated_dn_ntif",
	"uncalibrated_dn",
}

// SupportedBundleTypes returns the bundle types whose file naming is known to
// shelve correctly.
func SupportedBundleTypes() []string {
	return slices.Clone(supportedBundleTypes)
}

// DefaultRequiredSuffixes returns the aux suffixes every scene must carry.
func DefaultRequiredSuffixes() []string {
	return []string{"manifest.json", "metadata.xml"}
}

// Policy is the rule set Classify applies.
type Policy struct {
	SupportedBundleTypes []string
	RequiredSuffixes     []string
	RequireChecksum      bool
}

// DefaultPolicy returns the fixed bundle set, default suffixes, and checksum
// verification.
func DefaultPolicy() Policy {
	return Policy{
		SupportedBundleTypes: SupportedBundleTypes(),
		RequiredSuffixes:     DefaultRequiredSuffixes(),
		RequireChecksum:      true,
	}
}

// Reason labels used in Record.Reasons.
const (
	ReasonMissingScene      = "scene file missing"
	ReasonUnsupportedBundle = "unsupported bundle type"
	ReasonChecksumFailed    = "checksum failed"
	ReasonChecksumUnchecked = "checksum not verified"
	ReasonNoDestination     = "acquisition date unknown"
)

// Classify decides whether r may be shelved and records every reason it may
// not. Duplicate matches for a required suffix count as present.
func (r *Record) Classify(logger *slog.Logger, policy Policy) bool {
	if logger == nil {
		logger = logging.NewNop()
	}
	suffixes := policy.RequiredSuffixes
	if len(suffixes) == 0 {
		suffixes = DefaultRequiredSuffixes()
	}
	bundles := policy.SupportedBundleTypes
	if len(bundles) == 0 {
		bundles = supportedBundleTypes
	}

	var reasons []string
	if r.Missing {
		reasons = append(reasons, ReasonMissingScene)
	}
	if !slices.Contains(bundles, r.BundleType) {
		reasons = append(reasons, fmt.Sprintf("%s %q", ReasonUnsupportedBundle, r.BundleType))
		logging.WarnWithContext(logger, "bundle type not supported", "bundle_unsupported",
			logging.String(logging.FieldSceneID, r.ID),
			logging.String("bundle_type", r.BundleType),
			logging.String(logging.FieldErrorHint, "supported bundles: "+strings.Join(bundles, ", ")),
			logging.String(logging.FieldImpact, "scene is not shelved"),
		)
	}
	for _, suffix := range suffixes {
		if len(r.AuxWithSuffix(suffix)) == 0 {
			reasons = append(reasons, "missing "+suffix)
		}
	}
	if policy.RequireChecksum {
		switch r.Checksum {
		case ChecksumVerified:
		case ChecksumFailed:
			reasons = append(reasons, ReasonChecksumFailed)
		default:
			reasons = append(reasons, ReasonChecksumUnchecked)
		}
	}
	if r.Acquired.IsZero() {
		reasons = append(reasons, ReasonNoDestination)
	}

	r.Reasons = reasons
	r.Classified = true
	r.Shelveable = len(reasons) == 0
	if !r.Shelveable {
		logger.Info("scene unshelveable",
			logging.String(logging.FieldEventType, "scene_unshelveable"),
			logging.String(logging.FieldSceneID, r.ID),
			logging.String("scene", r.ScenePath),
			logging.String("reasons", strings.Join(reasons, "; ")),
			logging.String("checksum", r.Checksum.String()),
			logging.String("instrument", r.Instrument),
			logging.String("bundle_type", r.BundleType),
			logging.String("strip_id", r.StripID),
		)
	}
	return r.Shelveable
}
