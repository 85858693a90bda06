package batch

import (
	"errors"
	"fmt"

	"heicbatch/internal/services"
)

// Phase is the batch lifecycle state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreparing  Phase = "preparing"
	PhaseConverting Phase = "converting"
	PhaseCompleted  Phase = "completed"
	PhaseCancelled  Phase = "cancelled"
	PhaseError      Phase = "error"
)

// IsTerminal reports whether the phase needs a reset before more work starts.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseCompleted, PhaseCancelled, PhaseError:
		return true
	}
	return false
}

var (
	// ErrNoValidFiles reports a submission where nothing passed admission.
	ErrNoValidFiles = fmt.Errorf("%w: no valid files to convert", services.ErrAdmission)
	// ErrAllFailed reports a completed batch with zero successful jobs.
	ErrAllFailed = fmt.Errorf("%w: all files failed to convert", services.ErrConversion)
	// ErrAlreadyRunning reports a Start while a scheduler run is active.
	ErrAlreadyRunning = errors.New("batch already converting")
	// ErrNotReady reports an operation the current phase does not allow.
	ErrNotReady = errors.New("batch not ready")
)
