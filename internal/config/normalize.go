package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// Normalize re-applies path expansion and canonicalization. Callers that
// mutate a loaded Config (for example from CLI flags) run it before Validate.
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	if err := c.normalizeAdmission(); err != nil {
		return err
	}
	c.normalizeConverter()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" || c.Paths.OutputDir == defaultOutputDir {
		if env, ok := os.LookupEnv(outputDirEnv); ok && strings.TrimSpace(env) != "" {
			c.Paths.OutputDir = strings.TrimSpace(env)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConversion() {
	format := strings.ToLower(strings.TrimSpace(c.Conversion.Format))
	switch format {
	case "":
		format = defaultFormat
	case "jpeg":
		format = "jpg"
	}
	c.Conversion.Format = format
}

func (c *Config) normalizeAdmission() error {
	c.Admission.Mode = strings.ToLower(strings.TrimSpace(c.Admission.Mode))
	if c.Admission.Mode == "" {
		c.Admission.Mode = AdmissionModeHEIC
	}

	raw := strings.TrimSpace(c.Admission.MaxFileSize)
	if raw == "" || raw == "0" {
		c.Admission.maxFileSizeBytes = 0
		return nil
	}
	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("admission.max_file_size: %w", err)
	}
	c.Admission.maxFileSizeBytes = int64(size)
	return nil
}

func (c *Config) normalizeConverter() {
	c.Converter.Tool = strings.ToLower(strings.TrimSpace(c.Converter.Tool))
	if c.Converter.Tool == "" {
		c.Converter.Tool = defaultConverterTool
	}
	c.Converter.Binary = strings.TrimSpace(c.Converter.Binary)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
