package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateShelving(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateShelving() error {
	switch c.Shelving.TransferMethod {
	case "copy", "link":
	default:
		return fmt.Errorf("shelving.transfer_method must be copy or link, got %q", c.Shelving.TransferMethod)
	}
	switch c.Shelving.ChecksumAlgorithm {
	case "md5", "sha256":
	default:
		return fmt.Errorf("shelving.checksum_algorithm must be md5 or sha256, got %q", c.Shelving.ChecksumAlgorithm)
	}
	if len(c.Shelving.SceneLevels) == 0 {
		return errors.New("shelving.scene_levels must include at least one level token")
	}
	if c.Paths.QuarantineDir != "" && c.Paths.QuarantineDir == c.Paths.DestinationDir {
		return errors.New("paths.quarantine_dir must differ from paths.destination_dir")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
