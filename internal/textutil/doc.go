// Package textutil provides file-name helpers shared by admission and packaging.
//
// The primary use cases are:
//   - Sanitizing submitted names so they are safe as archive entries and paths
//   - Deriving an output stem from an input name by stripping image extensions
//   - Producing collision keys that treat case and Unicode composition variants
//     of the same name as equal
package textutil
