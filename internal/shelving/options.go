package shelving

import (
	"planetshelf/internal/checksum"
	"planetshelf/internal/transfer"
)

// Options configure one run. Zero values fall back to the defaults noted on
// each field.
type Options struct {
	DataDir         string
	DestinationRoot string
	// QuarantineDir receives unshelveable files when LocateUnshelveable is set.
	QuarantineDir string

	// SupportedBundleTypes defaults to scene.SupportedBundleTypes().
	SupportedBundleTypes []string
	// RequiredAuxSuffixes defaults to scene.DefaultRequiredSuffixes().
	RequiredAuxSuffixes []string
	// SceneLevels defaults to scene.DefaultLevels.
	SceneLevels []string

	Method    transfer.Method
	Algorithm checksum.Algorithm

	SkipChecksums          bool
	ManifestsExist         bool
	RemoveSources          bool
	LocateUnshelveable     bool
	ManageUnshelveableOnly bool
	GenerateManifestsOnly  bool
	DryRun                 bool

	RunID string
}

// LockName is the lock file a live run holds in the destination root.
const LockName = ".planetshelf.lock"
