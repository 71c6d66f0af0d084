package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names a directory whose files matching Pattern are subject
// to pruning. Exclude lists paths that are never removed, such as the log
// file of the run doing the pruning.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files older than retentionDays from each target and
// returns how many were removed. retentionDays <= 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, target := range targets {
		removed += pruneTarget(logger, target, cutoff)
	}
	if removed > 0 {
		logger.Info("old run logs pruned",
			String(FieldEventType, "log_pruned"),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}

func pruneTarget(logger *slog.Logger, target RetentionTarget, cutoff time.Time) int {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return 0
	}
	pattern := strings.TrimSpace(target.Pattern)
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}

	keep := make(map[string]struct{}, len(target.Exclude))
	for _, path := range target.Exclude {
		if path = strings.TrimSpace(path); path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			keep[abs] = struct{}{}
		}
	}

	removed := 0
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if _, skip := keep[path]; skip {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions on the log directory"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	return removed
}
