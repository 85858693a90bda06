package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Queue is the in-memory job collection for one batch session. All methods
// are safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	session uuid.UUID
	policy  Policy
	jobs    []*Job
	index   map[uuid.UUID]*Job
	now     func() time.Time
}

// New returns an empty queue with a fresh session ID.
func New(policy Policy) *Queue {
	return &Queue{
		session: uuid.New(),
		policy:  policy,
		index:   make(map[uuid.UUID]*Job),
		now:     time.Now,
	}
}

// Session identifies this queue instance.
func (q *Queue) Session() uuid.UUID {
	return q.session
}

// Policy returns the admission policy the queue was created with.
func (q *Queue) Policy() Policy {
	return q.policy
}

// Admit filters files through the policy and appends a Pending job for each
// accepted one, preserving submission order. It returns the admitted count and
// a rejection entry for every file that was skipped.
func (q *Queue) Admit(files []RawFile) (int, []Rejection) {
	q.mu.Lock()
	defer q.mu.Unlock()

	admitted := 0
	var rejected []Rejection
	now := q.now()
	for _, f := range files {
		passthrough, reason := q.policy.check(f)
		if reason == "" && q.policy.MaxFiles > 0 && len(q.jobs) >= q.policy.MaxFiles {
			reason = q.policy.BatchLimitReason()
		}
		if reason != "" {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: reason})
			continue
		}
		job := &Job{
			ID:          uuid.New(),
			Name:        f.Name,
			MIMEType:    f.MIMEType,
			Size:        int64(len(f.Data)),
			Passthrough: passthrough,
			Source:      f.Data,
			Status:      StatusPending,
			AdmittedAt:  now,
		}
		q.jobs = append(q.jobs, job)
		q.index[job.ID] = job
		admitted++
	}
	return admitted, rejected
}

// PendingJobs returns the jobs still waiting, in admission order.
func (q *Queue) PendingJobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []Job
	for _, job := range q.jobs {
		if job.Status == StatusPending {
			pending = append(pending, *job)
		}
	}
	return pending
}

// Next pops the oldest pending job and marks it Converting in the same
// critical section, so no two callers receive the same job.
func (q *Queue) Next() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.Status == StatusPending {
			q.startLocked(job)
			return *job, true
		}
	}
	return Job{}, false
}

// MarkConverting moves a pending job to Converting. Calling it again on a job
// that is already converting is a no-op.
func (q *Queue) MarkConverting(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch job.Status {
	case StatusConverting:
		return nil
	case StatusPending:
		q.startLocked(job)
		return nil
	default:
		return transitionError(job, StatusConverting)
	}
}

// MarkSuccess settles a converting job with its encoded output.
func (q *Queue) MarkSuccess(id uuid.UUID, output []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.convertingLocked(id, StatusSucceeded)
	if err != nil {
		return err
	}
	job.Status = StatusSucceeded
	job.Progress = 100
	job.Output = output
	job.Source = nil
	job.FinishedAt = q.now()
	return nil
}

// MarkFailed settles a converting job with a failure reason.
func (q *Queue) MarkFailed(id uuid.UUID, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.convertingLocked(id, StatusFailed)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = "conversion failed"
	}
	job.Status = StatusFailed
	job.FailureReason = reason
	job.Source = nil
	job.FinishedAt = q.now()
	return nil
}

// IsSettled reports whether no job is pending or converting.
func (q *Queue) IsSettled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if !job.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// Get returns a snapshot of one job.
func (q *Queue) Get(id uuid.UUID) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.index[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *job, nil
}

// Jobs returns a snapshot of every job in admission order.
func (q *Queue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		out = append(out, *job)
	}
	return out
}

// Len returns the number of admitted jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Summary aggregates the current job counts.
func (q *Queue) Summary() Summary {
	q.mu.Lock()
	defer q.mu.Unlock()
	return summarize(q.jobs)
}

func (q *Queue) startLocked(job *Job) {
	job.Status = StatusConverting
	job.Progress = 0
	job.StartedAt = q.now()
}

func (q *Queue) convertingLocked(id uuid.UUID, target Status) (*Job, error) {
	job, ok := q.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if job.Status != StatusConverting {
		return nil, transitionError(job, target)
	}
	return job, nil
}

func transitionError(job *Job, target Status) error {
	return fmt.Errorf("%w: job %s is %s, cannot move to %s", ErrInvalidTransition, job.ID, job.Status, target)
}
