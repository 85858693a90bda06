// Package services defines shared utilities consumed by the conversion
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch session IDs, job IDs, and scheduler lane
//     numbers for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (admission, conversion, packaging, timeout) with errors.Is.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across packages.
package services
