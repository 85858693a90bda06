package queue

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConverting Status = "converting"
	StatusSucceeded  Status = "success"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status is a settled outcome.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Job is one file's unit of conversion work.
type Job struct {
	ID            uuid.UUID
	Name          string
	MIMEType      string
	Size          int64
	Passthrough   bool
	Source        []byte
	Status        Status
	Progress      int
	Output        []byte
	FailureReason string
	AdmittedAt    time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration returns how long the conversion ran, or zero if it has not settled.
func (j Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// RawFile is a submitted file before admission.
type RawFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Rejection records why a submitted file was not admitted.
type Rejection struct {
	Name   string
	Reason string
}

// Summary aggregates job counts for a batch.
type Summary struct {
	Total      int
	Pending    int
	Converting int
	Succeeded  int
	Failed     int
	// Percent is the mean job progress, rounded and clamped to 0..100.
	Percent int
}

// Done counts settled jobs.
func (s Summary) Done() int {
	return s.Succeeded + s.Failed
}

// Settled reports whether no job is pending or converting.
func (s Summary) Settled() bool {
	return s.Pending == 0 && s.Converting == 0
}

func summarize(jobs []*Job) Summary {
	summary := Summary{Total: len(jobs)}
	progress := 0
	for _, job := range jobs {
		progress += job.Progress
		switch job.Status {
		case StatusPending:
			summary.Pending++
		case StatusConverting:
			summary.Converting++
		case StatusSucceeded:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		}
	}
	if summary.Total > 0 {
		avg := math.Round(float64(progress) / float64(summary.Total))
		summary.Percent = int(math.Min(100, math.Max(0, avg)))
	}
	return summary
}
