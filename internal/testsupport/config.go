package testsupport

import (
	"path/filepath"
	"testing"

	"planetshelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DestinationDir = filepath.Join(base, "shelved")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Ledger.Path = filepath.Join(base, "ledger", "onhand.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTransferMethod overrides the configured transfer method.
func WithTransferMethod(method string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Shelving.TransferMethod = method
	}
}

// WithQuarantine points the quarantine directory at a temp subdirectory.
func WithQuarantine() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.QuarantineDir = filepath.Join(b.baseDir, "quarantine")
	}
}

// WithoutLedger disables the scenes-on-hand ledger.
func WithoutLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
