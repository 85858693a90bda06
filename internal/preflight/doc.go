// Package preflight provides readiness checks for the output directory and
// the external converter heicbatch depends on.
//
// These checks run in two contexts:
//   - The CLI "heicbatch check" command renders every Result from RunAll.
//   - Packaging calls FreeBytes before writing results so a full disk fails
//     fast with a packaging error instead of a truncated file.
package preflight
