package transfer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"planetshelf/internal/faults"
	"planetshelf/internal/fileutil"
	"planetshelf/internal/logging"
)

// Routing says what to do with the files of unshelveable scenes.
type Routing struct {
	// QuarantineDir receives the files when set. Takes precedence over Remove.
	QuarantineDir string
	// Remove deletes the files when no quarantine directory is set.
	Remove bool
}

// Action is what happened to one unshelveable file.
type Action string

const (
	ActionMoved   Action = "moved"
	ActionDeleted Action = "deleted"
	// ActionKept means the quarantine target already existed.
	ActionKept Action = "kept"
	// ActionLeft means no routing applied and the file stayed in place.
	ActionLeft   Action = "left"
	ActionFailed Action = "failed"
)

// Disposition records the handling of one unshelveable file.
type Disposition struct {
	Path   string
	Target string
	Action Action
	DryRun bool
	Err    error
}

// HandleUnshelveable moves files into the quarantine directory, or deletes
// them, or leaves them, according to routing. Quarantine targets are never
// overwritten. Dry runs report the intended action without touching files.
func (e *Engine) HandleUnshelveable(ctx context.Context, files []string, routing Routing) []Disposition {
	logger := logging.WithContext(ctx, e.logger)
	quarantine := strings.TrimSpace(routing.QuarantineDir)

	if quarantine != "" && !e.dryRun {
		if err := os.MkdirAll(quarantine, 0o755); err != nil {
			wrapped := faults.Wrap(faults.ErrTransfer, "quarantine", "create quarantine directory", quarantine, err)
			logging.ErrorWithContext(logger, "quarantine directory unavailable", "quarantine_failed",
				logging.String("dir", quarantine),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the --move_unshelveable path"),
				logging.String(logging.FieldImpact, "unshelveable files stay in the data directory"),
			)
			out := make([]Disposition, 0, len(files))
			for _, path := range files {
				out = append(out, Disposition{Path: path, Action: ActionFailed, Err: wrapped})
			}
			return out
		}
	}

	out := make([]Disposition, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			out = append(out, Disposition{Path: path, Action: ActionFailed, Err: err})
			continue
		}
		switch {
		case quarantine != "":
			out = append(out, e.quarantine(logger, path, filepath.Join(quarantine, filepath.Base(path))))
		case routing.Remove:
			out = append(out, e.delete(logger, path))
		default:
			out = append(out, Disposition{Path: path, Action: ActionLeft, DryRun: e.dryRun})
		}
	}
	return out
}

func (e *Engine) quarantine(logger *slog.Logger, path, target string) Disposition {
	d := Disposition{Path: path, Target: target, DryRun: e.dryRun}
	if _, err := os.Lstat(target); err == nil {
		d.Action = ActionKept
		logging.WarnWithContext(logger, "quarantine target exists, leaving file in place", "quarantine_exists",
			logging.String("path", path),
			logging.String("target", target),
			logging.String(logging.FieldErrorHint, "compare the two files and remove one by hand"),
			logging.String(logging.FieldImpact, "file stays in the data directory"),
		)
		return d
	}
	if e.dryRun {
		d.Action = ActionMoved
		return d
	}

	err := fileutil.MoveFile(path, target)
	switch {
	case err == nil:
		d.Action = ActionMoved
		logger.Debug("unshelveable file quarantined", logging.String("path", path), logging.String("target", target))
	case errors.Is(err, os.ErrExist):
		d.Action = ActionKept
	default:
		d.Action = ActionFailed
		d.Err = faults.Wrap(faults.ErrTransfer, "quarantine", "move", path+" -> "+target, err)
		logging.ErrorWithContext(logger, "quarantine move failed", "quarantine_failed",
			logging.String("path", path),
			logging.String("target", target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the quarantine directory"),
			logging.String(logging.FieldImpact, "file stays in the data directory"),
		)
	}
	return d
}

func (e *Engine) delete(logger *slog.Logger, path string) Disposition {
	d := Disposition{Path: path, Action: ActionDeleted, DryRun: e.dryRun}
	if e.dryRun {
		return d
	}
	if err := os.Remove(path); err != nil {
		d.Action = ActionFailed
		d.Err = faults.Wrap(faults.ErrTransfer, "quarantine", "delete", path, err)
		logging.ErrorWithContext(logger, "unshelveable file removal failed", "unshelveable_remove_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually"),
		)
		return d
	}
	logger.Debug("unshelveable file deleted", logging.String("path", path))
	return d
}
