// Package packager turns the successful jobs of a completed batch into one
// downloadable output.
//
// A single success is delivered as its raw bytes under "<stem>.<ext>". Two or
// more become a zip archive whose entries follow the same naming rule, with
// collisions resolved in admission order by inserting " (n)" before the
// extension. Failed jobs are skipped; a batch with no successes yields
// ErrNothingToPackage.
package packager
