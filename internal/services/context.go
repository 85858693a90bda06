package services

import "context"

type contextKey string

const (
	batchIDKey contextKey = "batch_id"
	jobIDKey   contextKey = "job_id"
	laneKey    contextKey = "lane"
)

// WithBatchID annotates context with the batch session identifier.
func WithBatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext returns the batch session identifier if present.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(batchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithJobID annotates context with the job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithLane annotates context with the scheduler lane number (1-based).
func WithLane(ctx context.Context, lane int) context.Context {
	if lane <= 0 {
		return ctx
	}
	return context.WithValue(ctx, laneKey, lane)
}

// LaneFromContext returns the scheduler lane number if present.
func LaneFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(laneKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
