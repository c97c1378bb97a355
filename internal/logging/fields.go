package logging

import (
	"context"
	"log/slog"

	"pmtm/internal/services"
)

// Standard attribute keys.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldOperation = "operation"
	FieldScanID    = "scan_id"
	// FieldEventType classifies a line for filtering (scene_unreadable, rewrite_failed, ...).
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
)

// WithContext returns logger with the run id, operation and scan id carried
// by ctx attached.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRunID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		args = append(args, slog.String(FieldOperation, op))
	}
	if id, ok := services.ScanIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldScanID, id))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
