package shelving

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"planetshelf/internal/ledger"
	"planetshelf/internal/logging"
	"planetshelf/internal/manifest"
	"planetshelf/internal/planner"
	"planetshelf/internal/scene"
	"planetshelf/internal/transfer"
)

func stageLogger(ctx context.Context, logger *slog.Logger, stage Stage) (context.Context, *slog.Logger) {
	ctx = logging.WithStage(ctx, string(stage))
	return ctx, logging.WithContext(ctx, logger)
}

// derive splits every master manifest into per-scene manifests. Manifests a
// dry run would have written are returned keyed by path.
func (o *Orchestrator) derive(ctx context.Context, logger *slog.Logger, summary *Summary) (map[string]manifest.Manifest, error) {
	if o.opts.ManifestsExist && !o.opts.GenerateManifestsOnly {
		return nil, nil
	}

	_, log := stageLogger(ctx, logger, StageDiscover)
	o.observer.StageStarted(StageDiscover, 0)
	masters, err := o.store.FindMasterManifests(o.opts.DataDir)
	o.observer.StageFinished(StageDiscover)
	if err != nil {
		return nil, err
	}
	summary.MastersFound = len(masters)
	log.Info("master manifests found", logging.Int("count", len(masters)))

	_, log = stageLogger(ctx, logger, StageDerive)
	planned := make(map[string]manifest.Manifest)
	o.observer.StageStarted(StageDerive, len(masters))
	defer o.observer.StageFinished(StageDerive)
	for i, master := range masters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := o.store.DeriveSceneManifests(master, manifest.DeriveOptions{DryRun: o.opts.DryRun})
		if err != nil {
			logging.WarnWithContext(log, "master manifest skipped", "master_manifest_invalid",
				logging.String("master", master),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-download the order manifest"),
				logging.String(logging.FieldImpact, "scenes of this order are only shelved if their manifests already exist"),
			)
			o.observer.StageAdvanced(StageDerive, i+1)
			continue
		}
		summary.ManifestsDerived += result.Count(manifest.DeriveWritten) + result.Count(manifest.DerivePlanned)
		for _, entry := range result.Entries {
			if entry.Action == manifest.DerivePlanned {
				planned[entry.Path] = entry.Manifest
			}
		}
		o.observer.StageAdvanced(StageDerive, i+1)
	}
	log.Info("scene manifests derived",
		logging.Int("derived", summary.ManifestsDerived),
		logging.Bool(logging.FieldDryRun, o.opts.DryRun),
	)
	return planned, nil
}

// load builds a record for every per-scene manifest on disk plus those held
// in memory by a dry run.
func (o *Orchestrator) load(ctx context.Context, logger *slog.Logger, summary *Summary, planned map[string]manifest.Manifest) ([]*scene.Record, error) {
	_, log := stageLogger(ctx, logger, StageLoad)

	var paths []string
	for path, err := range o.store.FindSceneManifests(o.opts.DataDir) {
		if err != nil {
			logging.WarnWithContext(log, "path unreadable during scene discovery", "scene_walk_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the data directory"),
			)
			continue
		}
		paths = append(paths, path)
	}
	plannedPaths := slices.Sorted(maps.Keys(planned))
	for _, path := range plannedPaths {
		if !slices.Contains(paths, path) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	summary.Discovered = len(paths)

	o.observer.StageStarted(StageLoad, len(paths))
	defer o.observer.StageFinished(StageLoad)

	records := make([]*scene.Record, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o.observer.StageAdvanced(StageLoad, i+1)

		m, ok := planned[path]
		if !ok {
			var err error
			m, err = o.store.Load(path)
			if err != nil {
				summary.ParseFailed++
				logging.WarnWithContext(log, "scene manifest unreadable", "manifest_parse_failed",
					logging.String("manifest", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "delete the file and rerun without --scene_manifests_exist"),
					logging.String(logging.FieldImpact, "scene is skipped"),
				)
				continue
			}
		}
		rec, err := scene.New(path, m, scene.Options{
			Levels:           o.opts.SceneLevels,
			RequiredSuffixes: o.opts.RequiredAuxSuffixes,
			Logger:           log,
			Planned:          plannedPaths,
		})
		if err != nil {
			summary.ParseFailed++
			logging.WarnWithContext(log, "scene could not be identified", "scene_unidentified",
				logging.String("manifest", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the scene file name and the planet/item_id annotation"),
				logging.String(logging.FieldImpact, "scene is skipped"),
			)
			continue
		}
		records = append(records, rec)
	}
	log.Info("scenes loaded",
		logging.Int("discovered", summary.Discovered),
		logging.Int("loaded", len(records)),
		logging.Int("parse_failed", summary.ParseFailed),
	)
	return records, nil
}

func (o *Orchestrator) verify(ctx context.Context, logger *slog.Logger, summary *Summary, records []*scene.Record) error {
	_, log := stageLogger(ctx, logger, StageVerify)
	if o.opts.SkipChecksums {
		summary.ChecksumsSkipped = len(records)
		log.Info("skipping checksum verification", logging.Int("scenes", len(records)))
		return nil
	}

	o.observer.StageStarted(StageVerify, len(records))
	defer o.observer.StageFinished(StageVerify)
	sampler := logging.NewProgressSampler(10)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch rec.Verify(log, o.opts.Algorithm) {
		case scene.ChecksumVerified:
			summary.Verified++
		default:
			summary.VerificationFailed++
		}
		o.observer.StageAdvanced(StageVerify, i+1)
		if sampler.ShouldLog(i+1, len(records)) {
			log.Info("verifying checksums",
				logging.Int("done", i+1),
				logging.Int("total", len(records)),
			)
		}
	}
	log.Info("checksums verified",
		logging.String("algorithm", string(o.opts.Algorithm)),
		logging.Int("verified", summary.Verified),
		logging.Int("failed", summary.VerificationFailed),
	)
	return nil
}

func (o *Orchestrator) classify(ctx context.Context, logger *slog.Logger, summary *Summary, records []*scene.Record) {
	_, log := stageLogger(ctx, logger, StageClassify)
	policy := scene.Policy{
		SupportedBundleTypes: o.opts.SupportedBundleTypes,
		RequiredSuffixes:     o.opts.RequiredAuxSuffixes,
		RequireChecksum:      !o.opts.SkipChecksums,
	}
	o.observer.StageStarted(StageClassify, len(records))
	defer o.observer.StageFinished(StageClassify)
	for i, rec := range records {
		if rec.Classify(log, policy) {
			summary.Shelveable++
		} else {
			summary.Unshelveable++
		}
		o.observer.StageAdvanced(StageClassify, i+1)
	}
	log.Info("scenes classified",
		logging.Int("shelveable", summary.Shelveable),
		logging.Int("unshelveable", summary.Unshelveable),
	)
}

// handleUnshelveable routes the files of unshelveable scenes. A file that
// also belongs to a shelveable scene stays put.
func (o *Orchestrator) handleUnshelveable(ctx context.Context, logger *slog.Logger, summary *Summary, records []*scene.Record) error {
	ctx, log := stageLogger(ctx, logger, StageClassify)

	keep := make(map[string]struct{})
	for _, rec := range records {
		if rec.Shelveable {
			for _, path := range rec.Files() {
				keep[path] = struct{}{}
			}
		}
	}
	var files []string
	for _, rec := range records {
		if rec.Shelveable {
			continue
		}
		for _, path := range rec.Files() {
			if _, shared := keep[path]; shared || slices.Contains(files, path) {
				continue
			}
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		log.Info("no unshelveable scenes found")
		return nil
	}

	log.Info("handling unshelveable files",
		logging.Int("scenes", summary.Unshelveable),
		logging.Int("files", len(files)),
		logging.String("quarantine", o.opts.QuarantineDir),
		logging.Bool("remove", o.opts.RemoveSources),
		logging.Bool(logging.FieldDryRun, o.opts.DryRun),
	)
	summary.addDispositions(o.engine.HandleUnshelveable(ctx, files, transfer.Routing{
		QuarantineDir: o.opts.QuarantineDir,
		Remove:        o.opts.RemoveSources,
	}))
	return ctx.Err()
}

func (o *Orchestrator) plan(ctx context.Context, logger *slog.Logger, records []*scene.Record) planner.Result {
	_, log := stageLogger(ctx, logger, StagePlan)
	o.observer.StageStarted(StagePlan, len(records))
	defer o.observer.StageFinished(StagePlan)
	result := planner.Plan(log, records, o.opts.DestinationRoot, o.opts.DataDir)
	log.Info("shelved destinations determined",
		logging.Int("files", len(result.Pairs)),
		logging.Int("excluded", len(result.Excluded)),
	)
	return result
}

func (o *Orchestrator) transfer(ctx context.Context, logger *slog.Logger, summary *Summary, pairs []planner.Pair) ([]transfer.Outcome, error) {
	ctx, log := stageLogger(ctx, logger, StageTransfer)
	o.observer.StageStarted(StageTransfer, len(pairs))
	defer o.observer.StageFinished(StageTransfer)

	sampler := logging.NewProgressSampler(10)
	outcomes := make([]transfer.Outcome, 0, len(pairs))
	previousOrder := ""
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if pair.OrderDir != previousOrder {
			log.Info("shelving order directory", logging.String(logging.FieldOrderDir, pair.OrderDir))
			previousOrder = pair.OrderDir
		}

		out := o.engine.Transfer(logging.WithOrderDir(ctx, pair.OrderDir), pair)
		outcomes = append(outcomes, out)
		summary.addOutcome(out)
		o.observer.StageAdvanced(StageTransfer, i+1)
		if sampler.ShouldLog(i+1, len(pairs)) {
			log.Info("shelving files",
				logging.Int("done", i+1),
				logging.Int("total", len(pairs)),
			)
		}
	}
	log.Info("transfer complete",
		logging.String("method", string(o.opts.Method)),
		logging.Int("transferred", summary.Transferred),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Bool(logging.FieldDryRun, o.opts.DryRun),
	)
	return outcomes, nil
}

// cleanup removes the source of every pair this run copied or linked. A dry
// run counts the removals it would make.
func (o *Orchestrator) cleanup(ctx context.Context, logger *slog.Logger, summary *Summary, outcomes []transfer.Outcome) {
	if !o.opts.RemoveSources {
		return
	}
	_, log := stageLogger(ctx, logger, StageCleanup)
	o.observer.StageStarted(StageCleanup, len(outcomes))
	defer o.observer.StageFinished(StageCleanup)
	for i, out := range outcomes {
		if o.opts.DryRun {
			if out.Succeeded() {
				summary.SourcesRemoved++
			}
		} else if removed, _ := o.engine.RemoveSource(out); removed {
			summary.SourcesRemoved++
		}
		o.observer.StageAdvanced(StageCleanup, i+1)
	}
	log.Info("source files removed",
		logging.Int("removed", summary.SourcesRemoved),
		logging.Bool(logging.FieldDryRun, o.opts.DryRun),
	)
}

// record writes a ledger row for every scene whose files all reached the
// shelf, whether copied now or already present.
func (o *Orchestrator) record(ctx context.Context, logger *slog.Logger, summary *Summary, records []*scene.Record, outcomes []transfer.Outcome) {
	if o.ledger == nil {
		return
	}
	_, log := stageLogger(ctx, logger, StageCleanup)

	failed := make(map[string]bool)
	seen := make(map[string]bool)
	for _, out := range outcomes {
		seen[out.Pair.ManifestPath] = true
		if out.Status == transfer.StatusFailed {
			failed[out.Pair.ManifestPath] = true
		}
	}
	var rows []ledger.Scene
	for _, rec := range records {
		if !rec.Shelveable || !seen[rec.ManifestPath] || failed[rec.ManifestPath] {
			continue
		}
		rows = append(rows, ledger.Scene{
			SceneID:    rec.ID,
			ItemType:   rec.ItemType,
			BundleType: rec.BundleType,
			Instrument: rec.Instrument,
			StripID:    rec.StripID,
			Acquired:   rec.Acquired,
			ShelvedDir: rec.Destination(o.opts.DestinationRoot),
			Method:     string(o.opts.Method),
			RunID:      o.opts.RunID,
		})
	}

	if o.opts.DryRun {
		summary.LedgerRows = len(rows)
		return
	}
	n, err := o.ledger.Upsert(ctx, rows)
	if err != nil {
		logging.ErrorWithContext(log, "ledger update failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the ledger path in the config"),
			logging.String(logging.FieldImpact, "shelved files are in place but not recorded as on hand"),
		)
		return
	}
	summary.LedgerRows = n
	log.Info("scenes on hand recorded", logging.Int("rows", n))
}
