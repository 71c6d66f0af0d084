package shelving

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"planetshelf/internal/checksum"
	"planetshelf/internal/faults"
	"planetshelf/internal/ledger"
	"planetshelf/internal/logging"
	"planetshelf/internal/manifest"
	"planetshelf/internal/preflight"
	"planetshelf/internal/scene"
	"planetshelf/internal/transfer"
)

// LedgerWriter records shelved scenes. *ledger.Store satisfies it.
type LedgerWriter interface {
	Upsert(ctx context.Context, scenes []ledger.Scene) (int, error)
}

// Orchestrator runs shelving passes.
type Orchestrator struct {
	opts     Options
	logger   *slog.Logger
	store    *manifest.Store
	engine   *transfer.Engine
	ledger   LedgerWriter
	observer Observer
}

// New builds an orchestrator. recorder and observer may be nil.
func New(opts Options, logger *slog.Logger, recorder LedgerWriter, observer Observer) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Method == "" {
		opts.Method = transfer.MethodCopy
	}
	if opts.Algorithm == "" {
		opts.Algorithm = checksum.MD5
	}
	if len(opts.SupportedBundleTypes) == 0 {
		opts.SupportedBundleTypes = scene.SupportedBundleTypes()
	}
	if len(opts.RequiredAuxSuffixes) == 0 {
		opts.RequiredAuxSuffixes = scene.DefaultRequiredSuffixes()
	}
	if len(opts.SceneLevels) == 0 {
		opts.SceneLevels = scene.DefaultLevels
	}
	if opts.ManageUnshelveableOnly {
		opts.LocateUnshelveable = true
	}

	logger = logging.NewComponentLogger(logger, "shelving")
	return &Orchestrator{
		opts:   opts,
		logger: logger,
		store:  manifest.NewStore(logger),
		engine: transfer.NewEngine(transfer.Options{
			Method:          opts.Method,
			DryRun:          opts.DryRun,
			Logger:          logger,
			DataDir:         opts.DataDir,
			DestinationRoot: opts.DestinationRoot,
		}),
		ledger:   recorder,
		observer: observer,
	}
}

// RunID returns the identifier stamped on this run's logs and ledger rows.
func (o *Orchestrator) RunID() string { return o.opts.RunID }

// Run executes one shelving pass. The returned summary is populated as far
// as the run progressed, even when an error is returned.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: o.opts.RunID, DryRun: o.opts.DryRun}
	ctx = logging.WithRunID(ctx, o.opts.RunID)
	logger := o.logger.With(logging.String(logging.FieldRunID, o.opts.RunID))

	logger.Info("shelving run starting",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("data_dir", o.opts.DataDir),
		logging.String("destination", o.opts.DestinationRoot),
		logging.String("quarantine", o.opts.QuarantineDir),
		logging.String("method", string(o.opts.Method)),
		logging.String("algorithm", string(o.opts.Algorithm)),
		logging.Bool("manifests_exist", o.opts.ManifestsExist),
		logging.Bool("verify_checksums", !o.opts.SkipChecksums),
		logging.Bool("remove_sources", o.opts.RemoveSources),
		logging.Bool("locate_unshelveable", o.opts.LocateUnshelveable),
		logging.Bool(logging.FieldDryRun, o.opts.DryRun),
	)

	if err := o.preflight(); err != nil {
		return summary, err
	}

	if !o.opts.DryRun && !o.opts.GenerateManifestsOnly {
		unlock, err := o.lock()
		if err != nil {
			return summary, err
		}
		defer unlock()
	}

	err := o.run(ctx, logger, &summary)
	summary.Duration = time.Since(started)
	if err == nil {
		summary.log(logger)
	}
	return summary, err
}

func (o *Orchestrator) preflight() error {
	if strings.TrimSpace(o.opts.DataDir) == "" {
		return faults.Wrap(faults.ErrConfiguration, "preflight", "check options", "data directory is required", nil)
	}
	req := preflight.Request{
		DataDir:  o.opts.DataDir,
		Mutating: !o.opts.ManifestsExist || o.opts.RemoveSources || o.opts.LocateUnshelveable,
		DryRun:   o.opts.DryRun,
	}
	if !o.opts.GenerateManifestsOnly {
		if strings.TrimSpace(o.opts.DestinationRoot) == "" {
			return faults.Wrap(faults.ErrConfiguration, "preflight", "check options", "destination directory is required", nil)
		}
		req.DestinationRoot = o.opts.DestinationRoot
		req.Method = o.opts.Method
		if within(o.opts.DataDir, o.opts.DestinationRoot) {
			return faults.Wrap(faults.ErrConfiguration, "preflight", "check options", "destination directory must not be the data directory or inside it", nil)
		}
		if o.opts.LocateUnshelveable {
			req.QuarantineDir = o.opts.QuarantineDir
			// Quarantined manifests would be rediscovered by the next run.
			if req.QuarantineDir != "" && within(o.opts.DataDir, req.QuarantineDir) {
				return faults.Wrap(faults.ErrConfiguration, "preflight", "check options", "quarantine directory must not be the data directory or inside it", nil)
			}
		}
		if err := o.engine.Check(); err != nil {
			return err
		}
	}
	return preflight.Err(preflight.RunAll(req))
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (o *Orchestrator) lock() (func(), error) {
	path := filepath.Join(o.opts.DestinationRoot, LockName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "preflight", "acquire lock", path, err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrConfiguration, "preflight", "acquire lock",
			fmt.Sprintf("another shelving run holds %s", path), nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("failed to release destination lock",
				logging.String("lock", path),
				logging.Error(err),
			)
		}
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, summary *Summary) error {
	planned, err := o.derive(ctx, logger, summary)
	if err != nil {
		return err
	}
	if o.opts.GenerateManifestsOnly {
		logger.Info("manifest generation complete",
			logging.String(logging.FieldStage, string(StageDone)),
			logging.Int("derived", summary.ManifestsDerived),
		)
		return nil
	}

	records, err := o.load(ctx, logger, summary, planned)
	if err != nil {
		return err
	}
	if summary.Discovered == 0 {
		if o.opts.DryRun {
			logger.Info("no scenes found; derive scene manifests with --generate_manifests_only to continue the dry run",
				logging.String(logging.FieldStage, string(StageDone)),
				logging.String("data_dir", o.opts.DataDir),
			)
			return nil
		}
		return faults.Wrap(faults.ErrNoScenes, "load", "discover scenes",
			fmt.Sprintf("no scene manifests under %s; are master manifests (manifest.json) present?", o.opts.DataDir), nil)
	}

	if err := o.verify(ctx, logger, summary, records); err != nil {
		return err
	}
	o.classify(ctx, logger, summary, records)

	if o.opts.LocateUnshelveable {
		if err := o.handleUnshelveable(ctx, logger, summary, records); err != nil {
			return err
		}
	}
	if o.opts.ManageUnshelveableOnly {
		logger.Info("unshelveable scenes handled, stopping",
			logging.String(logging.FieldStage, string(StageDone)),
		)
		return nil
	}

	plan := o.plan(ctx, logger, records)
	outcomes, err := o.transfer(ctx, logger, summary, plan.Pairs)
	if err != nil {
		return err
	}
	o.cleanup(ctx, logger, summary, outcomes)
	o.record(ctx, logger, summary, records, outcomes)
	return nil
}
