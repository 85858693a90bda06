package logging

import (
	"context"
	"log/slog"

	"heicbatch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBatchID identifies the batch session a record belongs to.
	FieldBatchID = "batch_id"
	// FieldJobID identifies a single file's conversion job.
	FieldJobID = "job_id"
	// FieldLane is the 1-based scheduler lane running a job.
	FieldLane = "lane"
	// FieldPhase is the batch lifecycle phase.
	FieldPhase     = "phase"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldErrorKind = "error_kind"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.BatchIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBatchID, id))
	}
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if lane, ok := services.LaneFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldLane, lane))
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
