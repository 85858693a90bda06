package config

import (
	"errors"
	"fmt"
	"strings"
)

// MaxConcurrency is the upper bound on simultaneous conversions.
const MaxConcurrency = 6

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateAdmission(); err != nil {
		return err
	}
	if err := c.validateConverter(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateConversion() error {
	switch c.Conversion.Format {
	case "png", "jpg", "webp":
	default:
		return fmt.Errorf("conversion.format must be png, jpg, or webp (got %q)", c.Conversion.Format)
	}
	if c.Conversion.Quality < 1 || c.Conversion.Quality > 100 {
		return errors.New("conversion.quality must be between 1 and 100")
	}
	if c.Conversion.Concurrency < 0 || c.Conversion.Concurrency > MaxConcurrency {
		return fmt.Errorf("conversion.concurrency must be between 0 and %d", MaxConcurrency)
	}
	if c.Conversion.YieldMS < 0 {
		return errors.New("conversion.yield_ms must be non-negative")
	}
	if c.Conversion.JobTimeout < 0 {
		return errors.New("conversion.job_timeout must be non-negative")
	}
	return nil
}

func (c *Config) validateAdmission() error {
	switch c.Admission.Mode {
	case AdmissionModeHEIC, AdmissionModeMixed:
	default:
		return fmt.Errorf("admission.mode must be %q or %q (got %q)", AdmissionModeHEIC, AdmissionModeMixed, c.Admission.Mode)
	}
	if c.Admission.MaxFiles < 0 {
		return errors.New("admission.max_files must be non-negative")
	}
	return nil
}

func (c *Config) validateConverter() error {
	switch c.Converter.Tool {
	case ConverterToolVips, ConverterToolHeifDec, ConverterToolImageMagic:
	default:
		return fmt.Errorf("converter.tool must be one of vips, heif-dec, magick (got %q)", c.Converter.Tool)
	}
	if c.Converter.Tool == ConverterToolHeifDec && c.Conversion.Format == "webp" {
		return errors.New("converter.tool heif-dec cannot encode webp; use vips or magick")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.TrimSpace(c.Output.ArchivePrefix) == "" {
		return errors.New("output.archive_prefix must be set")
	}
	if strings.ContainsAny(c.Output.ArchivePrefix, `/\`) {
		return errors.New("output.archive_prefix must not contain path separators")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
