// Package config loads, normalizes, and validates heicbatch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, parses human-readable size limits, and honours
// the HEICBATCH_OUTPUT_DIR environment fallback. The Config type centralizes
// every knob the CLI and the conversion pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical formats, and clear validation errors.
package config
