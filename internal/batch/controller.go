package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"heicbatch/internal/config"
	"heicbatch/internal/convert"
	"heicbatch/internal/logging"
	"heicbatch/internal/packager"
	"heicbatch/internal/queue"
	"heicbatch/internal/scheduler"
)

// Options configures a Controller. Format and Quality apply to every job in
// the batch.
type Options struct {
	Policy     queue.Policy
	Primitive  convert.Primitive
	Format     convert.Format
	Quality    int
	Lanes      int
	Yield      time.Duration
	JobTimeout time.Duration
	Logger     *slog.Logger
	// Observer receives a snapshot after every phase change and job
	// settlement. It may be called from several goroutines.
	Observer func(Snapshot)
}

// OptionsFromConfig maps the [conversion] and [admission] sections onto
// controller options.
func OptionsFromConfig(cfg *config.Config, prim convert.Primitive, logger *slog.Logger) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("config required")
	}
	format, err := convert.ParseFormat(cfg.Conversion.Format)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Policy:     queue.PolicyFromConfig(cfg),
		Primitive:  prim,
		Format:     format,
		Quality:    cfg.Conversion.Quality,
		Lanes:      scheduler.LanesFromConfig(cfg),
		Yield:      cfg.YieldDuration(),
		JobTimeout: cfg.JobTimeoutDuration(),
		Logger:     logger,
	}, nil
}

// Snapshot is a consistent copy of controller state.
type Snapshot struct {
	Session  uuid.UUID
	Phase    Phase
	Format   convert.Format
	Quality  int
	Jobs     []queue.Job
	Summary  queue.Summary
	Rejected []queue.Rejection
	Err      error
}

// Controller drives one batch at a time.
type Controller struct {
	mu      sync.Mutex
	opts    Options
	logger  *slog.Logger
	sampler *logging.ProgressSampler

	phase     Phase
	queue     *queue.Queue
	running   bool
	sched     *scheduler.Scheduler
	cancelRun context.CancelFunc
	runDone   chan struct{}
	rejected  []queue.Rejection
	lastErr   error
}

// New constructs an idle controller.
func New(opts Options) *Controller {
	if opts.Format == "" {
		opts.Format = convert.FormatPNG
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	opts.Lanes = scheduler.LaneCount(opts.Lanes)
	return &Controller{
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "batch"),
		sampler: logging.NewProgressSampler(10),
		phase:   PhaseIdle,
		queue:   queue.New(opts.Policy),
	}
}

// Running reports whether a scheduler run is active for the current batch.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Lanes returns the scheduler lane count used for each run.
func (c *Controller) Lanes() int {
	return c.opts.Lanes
}

// Submit admits files. After a terminal phase it starts a brand-new batch;
// while a batch is preparing or converting the files join it. A submission
// with no valid files returns ErrNoValidFiles and leaves any existing batch
// untouched; an empty controller moves to PhaseError.
func (c *Controller) Submit(files []queue.RawFile) (int, error) {
	c.mu.Lock()

	target := c.queue
	fresh := c.phase.IsTerminal() || c.phase == PhaseIdle
	if c.phase.IsTerminal() {
		target = queue.New(c.opts.Policy)
	}
	admitted, rejected := target.Admit(files)
	c.rejected = rejected
	for _, r := range rejected {
		c.logger.Debug("file rejected",
			logging.String("file", r.Name),
			logging.String("reason", r.Reason),
			logging.String(logging.FieldEventType, "file_rejected"),
		)
	}

	if admitted == 0 {
		if c.phase == PhaseIdle || c.phase == PhaseError {
			c.lastErr = ErrNoValidFiles
			c.setPhaseLocked(PhaseError)
		}
		logging.WarnWithHint(c.logger, "no valid files in submission", "admission_empty",
			"submit .heic or .heif files (or enable mixed admission for jpg/png)",
			logging.Int("submitted", len(files)),
		)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return 0, ErrNoValidFiles
	}

	if fresh {
		c.queue = target
		c.lastErr = nil
		c.sampler.Reset()
		c.setPhaseLocked(PhasePreparing)
	}
	c.logger.Info("files admitted",
		logging.Int("admitted", admitted),
		logging.Int("rejected", len(rejected)),
		logging.Int("total", c.queue.Len()),
		logging.String(logging.FieldBatchID, c.queue.Session().String()),
		logging.String(logging.FieldEventType, "files_admitted"),
	)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return admitted, nil
}

// Start launches the scheduler for a preparing batch and returns immediately.
// Files submitted while converting are picked up by the same run.
func (c *Controller) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	if c.phase == PhaseConverting {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if c.phase != PhasePreparing {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot start from %s", ErrNotReady, phase)
	}
	if c.opts.Primitive == nil {
		c.mu.Unlock()
		return errors.New("conversion primitive not configured")
	}

	if c.cancelRun != nil {
		// A run from the previous batch may still be winding down.
		c.cancelRun()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancelRun = cancel
	c.runDone = done
	c.running = true
	q := c.queue
	c.setPhaseLocked(PhaseConverting)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	go c.run(runCtx, q, done)
	return nil
}

// Wait blocks until the current run ends (completed or cancelled) or ctx is
// done, then returns a snapshot.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	done := c.runDone
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
	return c.Snapshot(), nil
}

// Convert submits files, runs the batch to completion, and returns the final
// snapshot. A completed batch with zero successes returns ErrAllFailed.
func (c *Controller) Convert(ctx context.Context, files []queue.RawFile) (Snapshot, error) {
	if _, err := c.Submit(files); err != nil {
		return c.Snapshot(), err
	}
	if err := c.Start(ctx); err != nil {
		return c.Snapshot(), err
	}
	snap, err := c.Wait(ctx)
	if err != nil {
		return snap, err
	}
	return snap, snap.Err
}

// Cancel stops a preparing or converting batch, discards all jobs, and moves
// to PhaseCancelled. It reports whether anything was cancelled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	if c.phase != PhasePreparing && c.phase != PhaseConverting {
		c.mu.Unlock()
		return false
	}
	discarded := c.queue.Len()
	c.stopRunLocked()
	c.queue = queue.New(c.opts.Policy)
	c.lastErr = nil
	c.setPhaseLocked(PhaseCancelled)
	c.logger.Info("batch cancelled",
		logging.Int("discarded_jobs", discarded),
		logging.String(logging.FieldEventType, "batch_cancelled"),
	)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return true
}

// Reset discards everything and returns to PhaseIdle.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopRunLocked()
	c.queue = queue.New(c.opts.Policy)
	c.rejected = nil
	c.lastErr = nil
	c.sampler.Reset()
	c.setPhaseLocked(PhaseIdle)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleCheckLocked()
	return c.snapshotLocked()
}

// Package builds the download for a completed batch.
func (c *Controller) Package(opts packager.Options) (packager.Output, error) {
	c.mu.Lock()
	c.settleCheckLocked()
	if c.phase != PhaseCompleted {
		phase := c.phase
		c.mu.Unlock()
		return packager.Output{}, fmt.Errorf("%w: cannot package from %s", ErrNotReady, phase)
	}
	jobs := c.queue.Jobs()
	format := c.opts.Format
	c.mu.Unlock()

	out, err := packager.Package(jobs, format, opts)
	if err != nil {
		if !errors.Is(err, packager.ErrNothingToPackage) {
			logging.WarnWithHint(c.logger, "packaging failed", "packaging_failed",
				"converted files can still be saved individually", logging.Error(err))
		}
		return packager.Output{}, err
	}
	c.logger.Info("batch packaged",
		logging.String("name", out.Name),
		logging.Int("entries", len(out.Entries)),
		logging.Bool("archive", out.Archive),
		logging.String(logging.FieldEventType, "batch_packaged"),
	)
	return out, nil
}

func (c *Controller) run(ctx context.Context, q *queue.Queue, done chan struct{}) {
	defer close(done)
	for {
		c.mu.Lock()
		if c.queue != q {
			c.finishRunLocked(done)
			c.mu.Unlock()
			return
		}
		sched := scheduler.New(q, c.opts.Primitive, scheduler.Options{
			Lanes:      c.opts.Lanes,
			Format:     c.opts.Format,
			Quality:    c.opts.Quality,
			Yield:      c.opts.Yield,
			JobTimeout: c.opts.JobTimeout,
			Logger:     c.opts.Logger,
			OnSettle:   c.onSettle,
		})
		c.sched = sched
		c.mu.Unlock()

		sched.Run(ctx)

		c.mu.Lock()
		if c.queue != q {
			c.finishRunLocked(done)
			c.mu.Unlock()
			return
		}
		if ctx.Err() != nil && c.phase == PhaseConverting {
			c.finishRunLocked(done)
			c.mu.Unlock()
			c.Cancel()
			return
		}
		if len(q.PendingJobs()) > 0 && !sched.Cancelled() {
			c.mu.Unlock()
			continue
		}
		c.settleCheckLocked()
		c.finishRunLocked(done)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}
}

func (c *Controller) onSettle(session uuid.UUID, job queue.Job) {
	c.mu.Lock()
	if session != c.queue.Session() {
		c.logger.Debug("late result discarded",
			logging.String(logging.FieldBatchID, session.String()),
			logging.String(logging.FieldJobID, job.ID.String()),
			logging.String(logging.FieldEventType, "late_result_discarded"),
		)
		c.mu.Unlock()
		return
	}
	summary := c.queue.Summary()
	if summary.Total > 0 {
		percent := float64(summary.Done()) * 100 / float64(summary.Total)
		if c.sampler.ShouldLog(percent, string(c.phase)) {
			c.logger.Info("batch progress",
				logging.Int("done", summary.Done()),
				logging.Int("total", summary.Total),
				logging.Int("failed", summary.Failed),
				logging.String(logging.FieldPhase, string(c.phase)),
				logging.String(logging.FieldEventType, "batch_progress"),
			)
		}
	}
	c.settleCheckLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// settleCheckLocked moves a converting batch to Completed once every job has
// settled. Only the first caller to observe the settled queue transitions.
func (c *Controller) settleCheckLocked() {
	if c.phase != PhaseConverting || !c.queue.IsSettled() {
		return
	}
	summary := c.queue.Summary()
	if summary.Total == 0 {
		return
	}
	if summary.Succeeded == 0 {
		c.lastErr = ErrAllFailed
	}
	c.setPhaseLocked(PhaseCompleted)
	c.logger.Info("batch completed",
		logging.Int("total", summary.Total),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.String(logging.FieldBatchID, c.queue.Session().String()),
		logging.String(logging.FieldEventType, "batch_completed"),
	)
}

func (c *Controller) stopRunLocked() {
	if c.sched != nil {
		c.sched.Cancel()
	}
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.sched = nil
	c.cancelRun = nil
	c.running = false
}

// finishRunLocked clears run state if done still belongs to the active run.
func (c *Controller) finishRunLocked(done chan struct{}) {
	if c.runDone != done {
		return
	}
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.sched = nil
	c.cancelRun = nil
	c.running = false
}

func (c *Controller) setPhaseLocked(next Phase) {
	if c.phase == next {
		return
	}
	c.logger.Debug("batch phase changed",
		logging.String("from", string(c.phase)),
		logging.String(logging.FieldPhase, string(next)),
		logging.String(logging.FieldEventType, "phase_changed"),
	)
	c.phase = next
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Session:  c.queue.Session(),
		Phase:    c.phase,
		Format:   c.opts.Format,
		Quality:  c.opts.Quality,
		Jobs:     c.queue.Jobs(),
		Summary:  c.queue.Summary(),
		Rejected: append([]queue.Rejection(nil), c.rejected...),
		Err:      c.lastErr,
	}
}

func (c *Controller) notify(snap Snapshot) {
	if c.opts.Observer != nil {
		c.opts.Observer(snap)
	}
}
