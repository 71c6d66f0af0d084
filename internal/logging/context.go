package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized key for the identifier of one shelving run.
	FieldRunID = "run_id"
	// FieldStage is the standardized key for pipeline stage names.
	FieldStage = "stage"
	// FieldOrderDir is the standardized key for the order directory being processed.
	FieldOrderDir = "order_dir"
	// FieldSceneID is the standardized key for scene identifiers.
	FieldSceneID = "scene_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDryRun marks records emitted by a dry run.
	FieldDryRun = "dry_run"
)

type contextKey string

const (
	stageKey    contextKey = "stage"
	orderDirKey contextKey = "order_dir"
	runIDKey    contextKey = "run_id"
)

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// WithOrderDir annotates context with the order directory being processed.
func WithOrderDir(ctx context.Context, order string) context.Context {
	if order == "" {
		return ctx
	}
	return context.WithValue(ctx, orderDirKey, order)
}

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
// The run id is not included because the run handler already stamps it.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		fields = append(fields, slog.String(FieldStage, v))
	}
	if v, ok := ctx.Value(orderDirKey).(string); ok && v != "" {
		fields = append(fields, slog.String(FieldOrderDir, v))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
