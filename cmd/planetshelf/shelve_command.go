package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"planetshelf/internal/checksum"
	"planetshelf/internal/config"
	"planetshelf/internal/faults"
	"planetshelf/internal/ledger"
	"planetshelf/internal/logging"
	"planetshelf/internal/shelving"
	"planetshelf/internal/transfer"
)

type shelveFlags struct {
	dataDir        string
	destinationDir string
	method         string
	quarantineDir  string
	logDir         string

	manifestsExist bool
	skipChecksums  bool
	removeSources  bool
	locate         bool
	manageOnly     bool
	generateOnly   bool
	dryRun         bool
}

func newShelveCommand(ctx *commandContext) *cobra.Command {
	var flags shelveFlags

	cmd := &cobra.Command{
		Use:   "shelve",
		Short: "Verify delivered scenes and shelve them into the archive tree",
		Long: `Derive per-scene manifests from each order's manifest.json, verify scene
checksums, and copy or hard-link every shelveable scene into
<destination>/<item_type>/<YYYY>/<MM>/<DD>/<scene_id>/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runShelve(cmd, cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.dataDir, "data_directory", "", "Directory holding delivered orders")
	f.StringVar(&flags.destinationDir, "destination_directory", "", "Root of the shelved tree (default from config)")
	f.StringVar(&flags.method, "transfer_method", "", "How files reach the shelf: copy or link (default from config)")
	f.StringVar(&flags.quarantineDir, "move_unshelveable", "", "Move unshelveable scenes into this directory")
	f.StringVar(&flags.logDir, "logdir", "", "Directory for the per-run log file (default from config)")
	f.BoolVar(&flags.manifestsExist, "scene_manifests_exist", false, "Per-scene manifests were already derived; skip derivation")
	f.BoolVar(&flags.skipChecksums, "skip_checksums", false, "Do not verify scene checksums")
	f.BoolVar(&flags.removeSources, "remove_sources", false, "Remove source files once they are shelved")
	f.BoolVar(&flags.locate, "locate_unshelveable", false, "Handle unshelveable scenes (quarantine, or delete with --remove_sources)")
	f.BoolVar(&flags.manageOnly, "manage_unshelveable_only", false, "Only handle unshelveable scenes; shelve nothing")
	f.BoolVar(&flags.generateOnly, "generate_manifests_only", false, "Only derive per-scene manifests")
	f.BoolVar(&flags.dryRun, "dryrun", false, "Report what would happen without changing any files")
	_ = cmd.MarkFlagRequired("data_directory")

	return cmd
}

func runShelve(cmd *cobra.Command, cfg *config.Config, flags shelveFlags) error {
	opts, err := shelveOptions(cmd, cfg, flags)
	if err != nil {
		return err
	}

	logDir := cfg.Paths.LogDir
	if cmd.Flags().Changed("logdir") {
		if logDir, err = config.ExpandPath(flags.logDir); err != nil {
			return fmt.Errorf("resolve log directory: %w", err)
		}
	}
	logger, logPath, err := logging.NewFromConfig(cfg, opts.RunID, logDir)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     logDir,
		Pattern: "shelve_*.log",
		Exclude: []string{logPath},
	})

	var recorder shelving.LedgerWriter
	if cfg.Ledger.Enabled && !opts.GenerateManifestsOnly {
		if opts.DryRun {
			recorder = ledgerPreview{}
		} else {
			store, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return faults.Wrap(faults.ErrConfiguration, "config", "open ledger", cfg.Ledger.Path, err)
			}
			defer store.Close()
			recorder = store
		}
	}

	out := cmd.OutOrStdout()
	orchestrator := shelving.New(opts, logger, recorder, newProgressObserver(cmd.ErrOrStderr()))
	summary, err := orchestrator.Run(cmd.Context())
	if err != nil {
		if logPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Run log: %s\n", logPath)
		}
		return err
	}

	fmt.Fprint(out, renderSummary(summary, opts.GenerateManifestsOnly))
	if failures := renderFailures(summary); failures != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, failures)
	}
	if logPath != "" {
		fmt.Fprintf(out, "Run log: %s\n", logPath)
	}
	return nil
}

// shelveOptions merges flags over the loaded config. Flags left unset fall
// back to the config value.
func shelveOptions(cmd *cobra.Command, cfg *config.Config, flags shelveFlags) (shelving.Options, error) {
	changed := cmd.Flags().Changed

	dataDir, err := config.ExpandPath(strings.TrimSpace(flags.dataDir))
	if err != nil {
		return shelving.Options{}, fmt.Errorf("resolve data directory: %w", err)
	}

	destination := cfg.Paths.DestinationDir
	if changed("destination_directory") {
		if destination, err = config.ExpandPath(strings.TrimSpace(flags.destinationDir)); err != nil {
			return shelving.Options{}, fmt.Errorf("resolve destination directory: %w", err)
		}
	}

	quarantine := cfg.Paths.QuarantineDir
	if changed("move_unshelveable") {
		if quarantine, err = config.ExpandPath(strings.TrimSpace(flags.quarantineDir)); err != nil {
			return shelving.Options{}, fmt.Errorf("resolve quarantine directory: %w", err)
		}
	}

	methodValue := cfg.Shelving.TransferMethod
	if changed("transfer_method") {
		methodValue = flags.method
	}
	method, err := transfer.ParseMethod(methodValue)
	if err != nil {
		return shelving.Options{}, err
	}

	algorithm, err := checksum.Parse(cfg.Shelving.ChecksumAlgorithm)
	if err != nil {
		return shelving.Options{}, err
	}

	skipChecksums := !cfg.Shelving.VerifyChecksums
	if changed("skip_checksums") {
		skipChecksums = flags.skipChecksums
	}
	removeSources := cfg.Shelving.RemoveSources
	if changed("remove_sources") {
		removeSources = flags.removeSources
	}

	return shelving.Options{
		DataDir:                dataDir,
		DestinationRoot:        destination,
		QuarantineDir:          quarantine,
		SceneLevels:            cfg.Shelving.SceneLevels,
		Method:                 method,
		Algorithm:              algorithm,
		SkipChecksums:          skipChecksums,
		ManifestsExist:         flags.manifestsExist,
		RemoveSources:          removeSources,
		LocateUnshelveable:     flags.locate,
		ManageUnshelveableOnly: flags.manageOnly,
		GenerateManifestsOnly:  flags.generateOnly,
		DryRun:                 flags.dryRun,
		RunID:                  uuid.NewString(),
	}, nil
}

// ledgerPreview stands in for the ledger on dry runs so would-be rows are
// counted without opening the database.
type ledgerPreview struct{}

func (ledgerPreview) Upsert(_ context.Context, scenes []ledger.Scene) (int, error) {
	return len(scenes), nil
}
