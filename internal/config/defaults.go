package config

const (
	defaultDestinationDir    = "/mnt/pgc/data/sat/orig"
	defaultLogDir            = "~/.local/share/planetshelf/logs"
	defaultLogRetentionDays  = 60
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultTransferMethod    = "copy"
	defaultChecksumAlgorithm = "md5"
	defaultLedgerEnabled     = true
	defaultLedgerPath        = "~/.local/share/planetshelf/onhand.db"
)

var defaultSceneLevels = []string{"1B", "3B"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
			LogDir:         defaultLogDir,
		},
		Shelving: Shelving{
			TransferMethod:    defaultTransferMethod,
			ChecksumAlgorithm: defaultChecksumAlgorithm,
			VerifyChecksums:   true,
			SceneLevels:       append([]string(nil), defaultSceneLevels...),
		},
		Ledger: Ledger{
			Enabled: defaultLedgerEnabled,
			Path:    defaultLedgerPath,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
