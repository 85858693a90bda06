package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Conversion contains batch-wide encoder and scheduling settings.
type Conversion struct {
	Format      string `toml:"format"`
	Quality     int    `toml:"quality"`
	Concurrency int    `toml:"concurrency"`
	YieldMS     int    `toml:"yield_ms"`
	JobTimeout  int    `toml:"job_timeout"`
}

// Admission contains the input filter policy.
type Admission struct {
	Mode        string `toml:"mode"`
	MaxFileSize string `toml:"max_file_size"`
	MaxFiles    int    `toml:"max_files"`

	maxFileSizeBytes int64
}

// Converter selects the external decoder backing the conversion primitive.
type Converter struct {
	Tool   string `toml:"tool"`
	Binary string `toml:"binary"`
}

// Output contains packaging settings.
type Output struct {
	ArchivePrefix    string `toml:"archive_prefix"`
	TimestampArchive bool   `toml:"timestamp_archive"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for heicbatch.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Conversion Conversion `toml:"conversion"`
	Admission  Admission  `toml:"admission"`
	Converter  Converter  `toml:"converter"`
	Output     Output     `toml:"output"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("heicbatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ConverterBinary returns the executable used by the configured converter tool.
func (c *Config) ConverterBinary() string {
	if binary := strings.TrimSpace(c.Converter.Binary); binary != "" {
		return binary
	}
	return c.Converter.Tool
}

// YieldDuration is the pause taken before each conversion starts.
func (c *Config) YieldDuration() time.Duration {
	return time.Duration(c.Conversion.YieldMS) * time.Millisecond
}

// JobTimeoutDuration is the per-file conversion timeout; zero disables it.
func (c *Config) JobTimeoutDuration() time.Duration {
	return time.Duration(c.Conversion.JobTimeout) * time.Second
}

// MaxFileSizeBytes returns the parsed admission.max_file_size; zero means unlimited.
func (a Admission) MaxFileSizeBytes() int64 {
	return a.maxFileSizeBytes
}

// MixedMode reports whether JPEG/PNG pass-through admission is enabled.
func (a Admission) MixedMode() bool {
	return a.Mode == AdmissionModeMixed
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the bundled sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
