// Package convert defines the single-image conversion boundary.
//
// A Primitive turns one source image into one encoded output for a target
// Format and quality. Implementations must not mutate Request.Source and must
// not share mutable state across concurrent calls; the scheduler invokes one
// Primitive from several lanes at once.
//
// External drives a command-line decoder (libvips, libheif's heif-dec, or
// ImageMagick) through temp files, one private directory per call.
// Passthrough wraps any Primitive and returns JPEG/PNG sources unchanged.
package convert
