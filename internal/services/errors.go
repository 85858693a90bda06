package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAdmission     = errors.New("admission error")
	ErrConversion    = errors.New("conversion error")
	ErrPackaging     = errors.New("packaging error")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ErrorKind is a short classification string used in structured logs.
type ErrorKind string

const (
	KindAdmission     ErrorKind = "admission"
	KindConversion    ErrorKind = "conversion"
	KindPackaging     ErrorKind = "packaging"
	KindExternalTool  ErrorKind = "external_tool"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindTimeout       ErrorKind = "timeout"
	KindCancelled     ErrorKind = "cancelled"
	KindTransient     ErrorKind = "transient"
)

// ErrorDetails captures the pieces of a wrapped error that logging cares about.
type ErrorDetails struct {
	Kind    ErrorKind
	Message string
	Hint    string
	Cause   error
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Details classifies err and returns a logging-friendly breakdown.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: classify(err), Message: strings.TrimSpace(err.Error())}
	details.Hint = hintFor(details.Kind)
	if cause := errors.Unwrap(err); cause != nil {
		details.Cause = cause
	}
	return details
}

// FailureReason renders err as the short, user-facing reason stored on a failed job.
func FailureReason(err error) string {
	switch classify(err) {
	case KindTimeout:
		return "conversion timed out"
	case KindCancelled:
		return "conversion cancelled"
	}
	if err == nil {
		return "conversion failed"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "conversion failed"
	}
	return msg
}

func classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrAdmission):
		return KindAdmission
	case errors.Is(err, ErrPackaging):
		return KindPackaging
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrConversion):
		return KindConversion
	default:
		return KindTransient
	}
}

func hintFor(kind ErrorKind) string {
	switch kind {
	case KindExternalTool:
		return "verify the converter binary is installed (heicbatch check)"
	case KindTimeout:
		return "raise conversion.job_timeout or inspect the source file"
	case KindConfiguration:
		return "review the configuration file"
	case KindPackaging:
		return "check output directory permissions and free space"
	case KindValidation, KindConversion:
		return "source file may be corrupt or an unsupported HEIF variant"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
