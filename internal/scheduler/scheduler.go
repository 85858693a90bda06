package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"heicbatch/internal/convert"
	"heicbatch/internal/logging"
	"heicbatch/internal/queue"
	"heicbatch/internal/services"
)

// Options configures a scheduler run.
type Options struct {
	Lanes      int
	Format     convert.Format
	Quality    int
	Yield      time.Duration
	JobTimeout time.Duration
	Logger     *slog.Logger
	// OnSettle is called from the lane goroutine after each job reaches a
	// terminal state, tagged with the session of the queue it belongs to.
	OnSettle func(session uuid.UUID, job queue.Job)
}

// Result summarizes one Run.
type Result struct {
	Lanes        int
	Started      int
	Succeeded    int
	Failed       int
	PeakInFlight int
	Cancelled    bool
}

// Scheduler runs conversions for one queue.
type Scheduler struct {
	queue  *queue.Queue
	prim   convert.Primitive
	opts   Options
	logger *slog.Logger

	cancelled atomic.Bool
	inFlight  atomic.Int32
	peak      atomic.Int32
	started   atomic.Int32
	succeeded atomic.Int32
	failed    atomic.Int32
}

// New constructs a scheduler; Options.Lanes is clamped with LaneCount.
func New(q *queue.Queue, prim convert.Primitive, opts Options) *Scheduler {
	opts.Lanes = LaneCount(opts.Lanes)
	if opts.Format == "" {
		opts.Format = convert.FormatPNG
	}
	return &Scheduler{
		queue:  q,
		prim:   prim,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "scheduler"),
	}
}

// Cancel stops lanes from popping new jobs.
func (s *Scheduler) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (s *Scheduler) Cancelled() bool {
	return s.cancelled.Load()
}

// Run drains the queue and blocks until every lane has exited.
func (s *Scheduler) Run(ctx context.Context) Result {
	lanes := s.opts.Lanes
	if s.queue == nil || s.prim == nil {
		return Result{Lanes: lanes}
	}
	ctx = services.WithBatchID(ctx, s.queue.Session().String())
	logger := logging.WithContext(ctx, s.logger)
	logger.Debug("scheduler started",
		logging.Int("lanes", lanes),
		logging.Int("pending", len(s.queue.PendingJobs())),
		logging.String(logging.FieldEventType, "scheduler_started"),
	)

	var wg sync.WaitGroup
	wg.Add(lanes)
	for lane := 1; lane <= lanes; lane++ {
		go s.runLane(services.WithLane(ctx, lane), &wg)
	}
	wg.Wait()

	result := Result{
		Lanes:        lanes,
		Started:      int(s.started.Load()),
		Succeeded:    int(s.succeeded.Load()),
		Failed:       int(s.failed.Load()),
		PeakInFlight: int(s.peak.Load()),
		Cancelled:    s.cancelled.Load(),
	}
	logger.Debug("scheduler drained",
		logging.Int("started", result.Started),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
		logging.Int("peak_in_flight", result.PeakInFlight),
		logging.Bool("cancelled", result.Cancelled),
		logging.String(logging.FieldEventType, "scheduler_drained"),
	)
	return result
}

func (s *Scheduler) runLane(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		if s.cancelled.Load() || ctx.Err() != nil {
			return
		}
		job, ok := s.queue.Next()
		if !ok {
			return
		}
		s.started.Add(1)
		s.process(ctx, job)
	}
}

func (s *Scheduler) process(ctx context.Context, job queue.Job) {
	jobCtx := services.WithJobID(ctx, job.ID.String())
	logger := logging.WithContext(jobCtx, s.logger)

	var (
		output []byte
		err    error
	)
	if err = s.yield(jobCtx); err == nil {
		logger.Debug("conversion started",
			logging.String("file", job.Name),
			logging.Int64("size_bytes", job.Size),
			logging.String(logging.FieldEventType, "conversion_started"),
		)
		s.enter()
		output, err = s.convert(jobCtx, job)
		s.inFlight.Add(-1)
	}

	var markErr error
	if err != nil {
		s.failed.Add(1)
		reason := services.FailureReason(err)
		markErr = s.queue.MarkFailed(job.ID, reason)
		details := services.Details(err)
		logging.WarnWithHint(logger, "conversion failed", "conversion_failed", details.Hint,
			logging.String("file", job.Name),
			logging.String("reason", reason),
			logging.String(logging.FieldErrorKind, string(details.Kind)),
			logging.Error(err),
		)
	} else {
		s.succeeded.Add(1)
		markErr = s.queue.MarkSuccess(job.ID, output)
	}
	if markErr != nil {
		logger.Error("job transition rejected",
			logging.String("file", job.Name),
			logging.Error(markErr),
			logging.String(logging.FieldEventType, "job_transition_invalid"),
		)
	}

	settled, getErr := s.queue.Get(job.ID)
	if getErr != nil {
		settled = job
	}
	if err == nil {
		logger.Info("conversion finished",
			logging.String("file", job.Name),
			logging.Duration("duration", settled.Duration()),
			logging.Int("output_bytes", len(output)),
			logging.String(logging.FieldEventType, "conversion_finished"),
		)
	}
	if s.opts.OnSettle != nil {
		s.opts.OnSettle(s.queue.Session(), settled)
	}
}

// yield gives other goroutines a turn before a conversion starts.
func (s *Scheduler) yield(ctx context.Context) error {
	if s.opts.Yield <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.Yield)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scheduler) enter() {
	current := s.inFlight.Add(1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}

type outcome struct {
	output []byte
	err    error
}

// convert runs the primitive in its own goroutine so a timeout frees the lane
// even when the primitive ignores its context.
func (s *Scheduler) convert(ctx context.Context, job queue.Job) ([]byte, error) {
	runCtx := ctx
	if s.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.JobTimeout)
		defer cancel()
	}

	req := convert.Request{
		Name:    job.Name,
		Source:  job.Source,
		Format:  s.opts.Format,
		Quality: s.opts.Quality,
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: services.Wrap(services.ErrConversion, "convert", job.Name, fmt.Sprintf("converter panic: %v", r), nil)}
			}
		}()
		out, err := s.prim.Convert(runCtx, req)
		done <- outcome{output: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && len(res.output) == 0 {
			res.err = services.Wrap(services.ErrConversion, "convert", job.Name, "converter returned no data", nil)
		}
		return res.output, res.err
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, services.Wrap(services.ErrTimeout, "convert", job.Name,
				fmt.Sprintf("no result after %s", s.opts.JobTimeout), runCtx.Err())
		}
		return nil, runCtx.Err()
	}
}
