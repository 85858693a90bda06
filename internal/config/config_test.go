package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"heicbatch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HEICBATCH_OUTPUT_DIR", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "Pictures", "heicbatch")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	wantLogs := filepath.Join(tempHome, ".local", "share", "heicbatch", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Conversion.Format != "png" {
		t.Fatalf("expected png default format, got %q", cfg.Conversion.Format)
	}
	if cfg.Conversion.Concurrency != 0 {
		t.Fatalf("expected auto concurrency, got %d", cfg.Conversion.Concurrency)
	}
	if cfg.YieldDuration() != 50*time.Millisecond {
		t.Fatalf("unexpected yield: %s", cfg.YieldDuration())
	}
	if cfg.JobTimeoutDuration() != 120*time.Second {
		t.Fatalf("unexpected job timeout: %s", cfg.JobTimeoutDuration())
	}
	if cfg.Admission.MaxFileSizeBytes() != 50_000_000 {
		t.Fatalf("unexpected max file size bytes: %d", cfg.Admission.MaxFileSizeBytes())
	}
	if cfg.Admission.MixedMode() {
		t.Fatal("expected heic-only admission by default")
	}
	if cfg.ConverterBinary() != "vips" {
		t.Fatalf("unexpected converter binary: %q", cfg.ConverterBinary())
	}
}

func TestLoadOutputDirFromEnvironment(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	envDir := filepath.Join(t.TempDir(), "converted")
	t.Setenv("HEICBATCH_OUTPUT_DIR", envDir)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != envDir {
		t.Fatalf("expected env output dir %q, got %q", envDir, cfg.Paths.OutputDir)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HEICBATCH_OUTPUT_DIR", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
output_dir = "~/converted"

[conversion]
format = "JPEG"
quality = 75
concurrency = 3

[admission]
mode = "Mixed"
max_file_size = "2 MiB"
max_files = 10

[converter]
tool = "magick"
binary = "/opt/bin/magick"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "converted") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Conversion.Format != "jpg" {
		t.Fatalf("expected jpeg normalized to jpg, got %q", cfg.Conversion.Format)
	}
	if cfg.Conversion.Quality != 75 || cfg.Conversion.Concurrency != 3 {
		t.Fatalf("unexpected conversion settings: %+v", cfg.Conversion)
	}
	if !cfg.Admission.MixedMode() {
		t.Fatal("expected mixed admission mode")
	}
	if cfg.Admission.MaxFileSizeBytes() != 2*1024*1024 {
		t.Fatalf("unexpected max file size bytes: %d", cfg.Admission.MaxFileSizeBytes())
	}
	if cfg.ConverterBinary() != "/opt/bin/magick" {
		t.Fatalf("unexpected converter binary: %q", cfg.ConverterBinary())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[conversion]\nspeed = 9\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "format", mutate: func(c *config.Config) { c.Conversion.Format = "gif" }, want: "conversion.format"},
		{name: "quality low", mutate: func(c *config.Config) { c.Conversion.Quality = 0 }, want: "conversion.quality"},
		{name: "quality high", mutate: func(c *config.Config) { c.Conversion.Quality = 101 }, want: "conversion.quality"},
		{name: "concurrency", mutate: func(c *config.Config) { c.Conversion.Concurrency = 7 }, want: "conversion.concurrency"},
		{name: "negative yield", mutate: func(c *config.Config) { c.Conversion.YieldMS = -1 }, want: "conversion.yield_ms"},
		{name: "negative timeout", mutate: func(c *config.Config) { c.Conversion.JobTimeout = -5 }, want: "conversion.job_timeout"},
		{name: "mode", mutate: func(c *config.Config) { c.Admission.Mode = "all" }, want: "admission.mode"},
		{name: "max files", mutate: func(c *config.Config) { c.Admission.MaxFiles = -1 }, want: "admission.max_files"},
		{name: "tool", mutate: func(c *config.Config) { c.Converter.Tool = "ffmpeg" }, want: "converter.tool"},
		{name: "heif-dec webp", mutate: func(c *config.Config) {
			c.Converter.Tool = config.ConverterToolHeifDec
			c.Conversion.Format = "webp"
		}, want: "heif-dec"},
		{name: "archive prefix", mutate: func(c *config.Config) { c.Output.ArchivePrefix = "a/b" }, want: "output.archive_prefix"},
		{name: "log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, want: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeRejectsBadFileSize(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.Admission.MaxFileSize = "lots"
	if err := cfg.Normalize(); err == nil {
		t.Fatal("expected parse error for max_file_size")
	}
}

func TestNormalizeZeroFileSizeMeansUnlimited(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.Admission.MaxFileSize = "0"
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if cfg.Admission.MaxFileSizeBytes() != 0 {
		t.Fatalf("expected unlimited size, got %d", cfg.Admission.MaxFileSizeBytes())
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HEICBATCH_OUTPUT_DIR", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	for _, section := range []string{"paths", "conversion", "admission", "converter", "output", "logging"} {
		if _, ok := raw[section]; !ok {
			t.Fatalf("sample config missing [%s]", section)
		}
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Conversion.Quality != config.Default().Conversion.Quality {
		t.Fatalf("sample quality drifted from defaults: %d", cfg.Conversion.Quality)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
