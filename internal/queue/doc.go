// Package queue holds the jobs of one conversion batch and drives their
// lifecycle.
//
// A Queue admits raw files through a Policy (extension, MIME type, size and
// count ceilings), assigns each accepted file a Pending job, and exposes the
// atomic transitions the scheduler lanes use: Next pops the oldest pending job
// and marks it Converting in one step, MarkSuccess and MarkFailed settle it.
// Transitions are monotonic (Pending → Converting → Succeeded|Failed); any
// other move returns ErrInvalidTransition and leaves the job untouched.
//
// Every Queue carries a session ID. Controllers replace the whole Queue when a
// batch is cancelled or reset, so results reported against an old session can
// be recognized and dropped.
//
// Treat this package as the single source of truth for job semantics; the
// scheduler and controller never mutate a Job directly.
package queue
