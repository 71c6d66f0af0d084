package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"planetshelf/internal/faults"
	"planetshelf/internal/fileutil"
	"planetshelf/internal/logging"
	"planetshelf/internal/planner"
)

// Status is the result of transferring one pair.
type Status string

const (
	StatusCopied  Status = "copied"
	StatusLinked  Status = "linked"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one pair. DryRun outcomes describe what a
// live run would have done.
type Outcome struct {
	Pair   planner.Pair
	Status Status
	DryRun bool
	Err    error
}

// Succeeded reports whether the pair's data now sits at its destination
// because of this transfer.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusCopied || o.Status == StatusLinked
}

// Options configure an Engine.
type Options struct {
	Method Method
	DryRun bool
	Logger *slog.Logger
	// Capabilities overrides the probed capabilities when non-nil.
	Capabilities *Capabilities
	// DataDir and DestinationRoot are probed for hard link support.
	DataDir         string
	DestinationRoot string
}

// Engine executes transfers for one run.
type Engine struct {
	method Method
	dryRun bool
	caps   Capabilities
	logger *slog.Logger
}

// NewEngine builds an engine and probes hard link capability.
func NewEngine(opts Options) *Engine {
	method := opts.Method
	if method == "" {
		method = MethodCopy
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	caps := Capabilities{}
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	} else if method == MethodLink {
		caps = Probe(opts.DataDir, opts.DestinationRoot)
	}
	return &Engine{
		method: method,
		dryRun: opts.DryRun,
		caps:   caps,
		logger: logging.NewComponentLogger(logger, "transfer"),
	}
}

// Method returns the configured transfer method.
func (e *Engine) Method() Method { return e.method }

// Capabilities returns the probed capabilities.
func (e *Engine) Capabilities() Capabilities { return e.caps }

// Check fails when the configured method cannot run here.
func (e *Engine) Check() error {
	switch e.method {
	case MethodCopy:
		return nil
	case MethodLink:
		if e.caps.Hardlinks {
			return nil
		}
		reason := e.caps.Reason
		if reason == "" {
			reason = "hard links unavailable"
		}
		return faults.Wrap(faults.ErrConfiguration, "preflight", "check transfer method", "link requested but "+reason+"; use --transfer_method copy", nil)
	default:
		return faults.Wrap(faults.ErrConfiguration, "preflight", "check transfer method", fmt.Sprintf("unsupported method %q", e.method), nil)
	}
}

func (e *Engine) successStatus() Status {
	if e.method == MethodLink {
		return StatusLinked
	}
	return StatusCopied
}

// Transfer copies or links pair.Src to pair.Dst. An existing destination is
// left untouched and reported as Skipped. The destination's parent directory
// is created first. Errors are returned inside the outcome.
func (e *Engine) Transfer(ctx context.Context, pair planner.Pair) Outcome {
	out := Outcome{Pair: pair, DryRun: e.dryRun}
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldSceneID, pair.SceneID),
	)

	if err := ctx.Err(); err != nil {
		out.Status = StatusFailed
		out.Err = faults.Wrap(faults.ErrTransfer, "transfer", "cancelled", pair.Src, err)
		return out
	}

	if _, err := os.Lstat(pair.Dst); err == nil {
		out.Status = StatusSkipped
		logger.Debug("destination exists, skipping",
			logging.String("src", pair.Src),
			logging.String("dst", pair.Dst),
		)
		return out
	} else if !errors.Is(err, os.ErrNotExist) {
		return e.fail(logger, out, "stat destination", err)
	}

	if e.dryRun {
		out.Status = e.successStatus()
		logger.Debug("dry run transfer",
			logging.String("src", pair.Src),
			logging.String("dst", pair.Dst),
			logging.String("method", string(e.method)),
		)
		return out
	}

	if err := os.MkdirAll(filepath.Dir(pair.Dst), 0o755); err != nil {
		return e.fail(logger, out, "create destination directory", err)
	}

	var err error
	switch e.method {
	case MethodLink:
		err = os.Link(pair.Src, pair.Dst)
	default:
		err = fileutil.CopyFilePreserve(pair.Src, pair.Dst)
	}
	if errors.Is(err, os.ErrExist) {
		out.Status = StatusSkipped
		logger.Debug("destination appeared during transfer, skipping", logging.String("dst", pair.Dst))
		return out
	}
	if err != nil {
		return e.fail(logger, out, string(e.method), err)
	}

	out.Status = e.successStatus()
	logger.Debug("file shelved",
		logging.String("src", pair.Src),
		logging.String("dst", pair.Dst),
		logging.String("status", string(out.Status)),
	)
	return out
}

func (e *Engine) fail(logger *slog.Logger, out Outcome, op string, err error) Outcome {
	out.Status = StatusFailed
	out.Err = faults.Wrap(faults.ErrTransfer, "transfer", op, out.Pair.Src+" -> "+out.Pair.Dst, err)
	logging.ErrorWithContext(logger, "transfer failed", "transfer_failed",
		logging.String("src", out.Pair.Src),
		logging.String("dst", out.Pair.Dst),
		logging.Error(out.Err),
		logging.String(logging.FieldErrorHint, "check free space and permissions on the destination"),
		logging.String(logging.FieldImpact, "file stays in the data directory; rerun to retry"),
	)
	return out
}

// RemoveSource deletes the source of a pair that this run copied or linked.
// Any other outcome, including Skipped, leaves the source alone and returns
// nil. Dry run outcomes never remove anything.
func (e *Engine) RemoveSource(out Outcome) (bool, error) {
	if !out.Succeeded() || out.DryRun || e.dryRun {
		return false, nil
	}
	if err := os.Remove(out.Pair.Src); err != nil {
		wrapped := faults.Wrap(faults.ErrTransfer, "cleanup", "remove source", out.Pair.Src, err)
		logging.ErrorWithContext(e.logger, "source removal failed", "source_remove_failed",
			logging.String(logging.FieldSceneID, out.Pair.SceneID),
			logging.String("src", out.Pair.Src),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually once the shelved copy is confirmed"),
			logging.String(logging.FieldImpact, "duplicate file remains in the data directory"),
		)
		return false, wrapped
	}
	e.logger.Debug("source removed", logging.String("src", out.Pair.Src))
	return true, nil
}
