package queue

import "errors"

var (
	// ErrInvalidTransition reports a lifecycle move the job's current status does not allow.
	ErrInvalidTransition = errors.New("invalid job transition")
	// ErrNotFound reports an unknown job ID for this queue.
	ErrNotFound = errors.New("job not found")
)
