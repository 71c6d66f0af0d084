package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeShelving()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("PLANETSHELF_DESTINATION_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DestinationDir = value
	}
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		c.Paths.DestinationDir = defaultDestinationDir
	}
	var err error
	if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.QuarantineDir = strings.TrimSpace(c.Paths.QuarantineDir)
	if c.Paths.QuarantineDir, err = expandPath(c.Paths.QuarantineDir); err != nil {
		return fmt.Errorf("paths.quarantine_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeShelving() {
	c.Shelving.TransferMethod = NormalizeTransferMethod(c.Shelving.TransferMethod)
	if c.Shelving.TransferMethod == "" {
		c.Shelving.TransferMethod = defaultTransferMethod
	}
	c.Shelving.ChecksumAlgorithm = strings.ToLower(strings.TrimSpace(c.Shelving.ChecksumAlgorithm))
	if c.Shelving.ChecksumAlgorithm == "" {
		c.Shelving.ChecksumAlgorithm = defaultChecksumAlgorithm
	}
	levels := make([]string, 0, len(c.Shelving.SceneLevels))
	seen := make(map[string]struct{}, len(c.Shelving.SceneLevels))
	for _, level := range c.Shelving.SceneLevels {
		level = strings.ToUpper(strings.TrimSpace(level))
		if level == "" {
			continue
		}
		if _, ok := seen[level]; ok {
			continue
		}
		seen[level] = struct{}{}
		levels = append(levels, level)
	}
	if len(levels) == 0 {
		levels = append(levels, defaultSceneLevels...)
	}
	c.Shelving.SceneLevels = levels
}

func (c *Config) normalizeLedger() error {
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = defaultLedgerPath
	}
	var err error
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// NormalizeTransferMethod maps user spellings onto the canonical method names
// "copy" and "link". Unknown values are returned lower-cased for validation to
// reject.
func NormalizeTransferMethod(value string) string {
	method := strings.ToLower(strings.TrimSpace(value))
	switch method {
	case "hardlink", "hard_link", "ln":
		return "link"
	case "cp":
		return "copy"
	default:
		return method
	}
}
