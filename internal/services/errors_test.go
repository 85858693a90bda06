package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"heicbatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "convert", "vips", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"convert", "vips", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestDetailsClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want services.ErrorKind
	}{
		{"timeout marker", services.Wrap(services.ErrTimeout, "convert", "", "", nil), services.KindTimeout},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), services.KindTimeout},
		{"cancelled", context.Canceled, services.KindCancelled},
		{"packaging", services.Wrap(services.ErrPackaging, "package", "zip", "", nil), services.KindPackaging},
		{"validation", services.Wrap(services.ErrValidation, "convert", "", "bad", nil), services.KindValidation},
		{"plain", errors.New("x"), services.KindTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details := services.Details(tc.err)
			if details.Kind != tc.want {
				t.Fatalf("kind = %q, want %q", details.Kind, tc.want)
			}
			if details.Hint == "" {
				t.Fatal("expected hint")
			}
		})
	}
	if details := services.Details(nil); details.Kind != "" {
		t.Fatalf("expected empty details for nil, got %+v", details)
	}
}

func TestFailureReason(t *testing.T) {
	if got := services.FailureReason(context.DeadlineExceeded); got != "conversion timed out" {
		t.Fatalf("unexpected timeout reason %q", got)
	}
	if got := services.FailureReason(nil); got != "conversion failed" {
		t.Fatalf("unexpected nil reason %q", got)
	}
	if got := services.FailureReason(errors.New("no HEIC image found")); got != "no HEIC image found" {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithBatchID(ctx, "batch-1")
	ctx = services.WithJobID(ctx, "job-1")
	ctx = services.WithLane(ctx, 2)

	if id, ok := services.BatchIDFromContext(ctx); !ok || id != "batch-1" {
		t.Fatalf("batch id = %q, %v", id, ok)
	}
	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("job id = %q, %v", id, ok)
	}
	if lane, ok := services.LaneFromContext(ctx); !ok || lane != 2 {
		t.Fatalf("lane = %d, %v", lane, ok)
	}
	if _, ok := services.LaneFromContext(services.WithLane(context.Background(), 0)); ok {
		t.Fatal("expected lane 0 to be ignored")
	}
}
