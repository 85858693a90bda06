package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"heicbatch/internal/batch"
	"heicbatch/internal/config"
)

func TestConvertSingleFileSavesRawOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.input(t, "IMG_0001.HEIC", "heic-bytes")

	out, _, err := runCLI(t, []string{"convert", "--format", "jpeg", path}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}
	requireContains(t, out, "Saved")
	requireContains(t, out, "IMG_0001.jpg")

	data, err := os.ReadFile(filepath.Join(env.outputDir, "IMG_0001.jpg"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "heic-bytes" {
		t.Fatalf("unexpected output content %q", data)
	}
}

func TestConvertDirectoryBuildsArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	env.input(t, "a.heic", "first")
	env.input(t, "b.HEIC", "second")
	env.input(t, filepath.Join("sub", "a.heic"), "third")
	env.input(t, "notes.txt", "ignored")

	out, _, err := runCLI(t, []string{"convert", "--concurrency", "2", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}
	if names := listDir(t, env.outputDir); len(names) != 1 || names[0] != "heic-to-png.zip" {
		t.Fatalf("expected a single archive, got %v", names)
	}

	zr, err := zip.OpenReader(filepath.Join(env.outputDir, "heic-to-png.zip"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	want := []string{"a.png", "b.png", "a (1).png"}
	if len(zr.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Fatalf("entry %d: got %q, want %q", i, f.Name, want[i])
		}
	}
}

func TestConvertIndividualDoesNotOverwrite(t *testing.T) {
	env := setupCLITestEnv(t)
	env.input(t, "a.heic", "first")
	env.input(t, "b.heic", "second")
	if err := os.MkdirAll(env.outputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.outputDir, "a.png"), []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	out, _, err := runCLI(t, []string{"convert", "--individual", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}
	existing, err := os.ReadFile(filepath.Join(env.outputDir, "a.png"))
	if err != nil || string(existing) != "existing" {
		t.Fatalf("existing file was modified: %q %v", existing, err)
	}
	saved, err := os.ReadFile(filepath.Join(env.outputDir, "a (1).png"))
	if err != nil || string(saved) != "first" {
		t.Fatalf("expected suffixed output, got %q %v", saved, err)
	}
	if _, err := os.Stat(filepath.Join(env.outputDir, "b.png")); err != nil {
		t.Fatalf("expected b.png: %v", err)
	}
}

func TestConvertMixedPassesThrough(t *testing.T) {
	env := setupCLITestEnv(t)
	env.input(t, "photo.jpg", "jpeg-bytes")
	env.input(t, "shot.heic", "heic-bytes")

	out, _, err := runCLI(t, []string{"convert", "--mixed", "--output", filepath.Join(env.baseDir, "mixed"), env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}
	zr, err := zip.OpenReader(filepath.Join(env.baseDir, "mixed", "heic-to-png.zip"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	got := map[string]bool{}
	for _, f := range zr.File {
		got[f.Name] = true
	}
	if !got["photo.jpg"] || !got["shot.png"] || len(got) != 2 {
		t.Fatalf("unexpected archive entries %v", got)
	}
}

func TestConvertAllFailed(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.input(t, "broken.heic", "corrupt")

	out, _, err := runCLI(t, []string{"convert", path}, env.configPath)
	if !errors.Is(err, batch.ErrAllFailed) {
		t.Fatalf("expected ErrAllFailed, got %v\n%s", err, out)
	}
	requireContains(t, out, "broken.heic")
	if names := listDir(t, env.outputDir); len(names) != 0 {
		t.Fatalf("expected nothing saved, got %v", names)
	}
}

func TestConvertPartialFailureSavesSuccesses(t *testing.T) {
	env := setupCLITestEnv(t)
	env.input(t, "good.heic", "fine")
	env.input(t, "bad.heic", "corrupt")

	out, _, err := runCLI(t, []string{"convert", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}
	requireContains(t, out, "Converted 1 of 2 files; 1 failed.")
	data, err := os.ReadFile(filepath.Join(env.outputDir, "good.png"))
	if err != nil || string(data) != "fine" {
		t.Fatalf("expected good.png, got %q %v", data, err)
	}
}

func TestConvertRejectsUnsupportedFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.input(t, "notes.txt", "text")

	out, _, err := runCLI(t, []string{"convert", path}, env.configPath)
	if !errors.Is(err, batch.ErrNoValidFiles) {
		t.Fatalf("expected ErrNoValidFiles, got %v", err)
	}
	requireContains(t, out, "notes.txt")
	requireContains(t, out, "skipped")
}

func TestConvertFlagValidation(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.input(t, "a.heic", "x")

	cases := [][]string{
		{"convert", "--quality", "0", path},
		{"convert", "--concurrency", "9", path},
		{"convert", "--format", "gif", path},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, env.configPath); err == nil {
			t.Fatalf("expected %v to fail validation", args)
		}
	}
	if names := listDir(t, env.outputDir); len(names) != 0 {
		t.Fatalf("expected nothing saved, got %v", names)
	}
}

func TestConvertMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"convert", filepath.Join(env.baseDir, "missing.heic")}, env.configPath); err == nil {
		t.Fatal("expected missing input to fail")
	}
}

func TestApplyConvertFlagsLeavesConfigUntouched(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = ""
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	cmd := newConvertCommand(newCommandContext(nil, nil))
	if err := cmd.Flags().Parse([]string{"--format", "webp", "--quality", "70", "--mixed"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	var flags convertFlags
	flags.format, _ = cmd.Flags().GetString("format")
	flags.quality, _ = cmd.Flags().GetInt("quality")
	flags.mixed, _ = cmd.Flags().GetBool("mixed")

	runCfg, err := applyConvertFlags(cmd, &cfg, flags)
	if err != nil {
		t.Fatalf("applyConvertFlags: %v", err)
	}
	if runCfg.Conversion.Format != "webp" || runCfg.Conversion.Quality != 70 || !runCfg.Admission.MixedMode() {
		t.Fatalf("flags not applied: %+v %+v", runCfg.Conversion, runCfg.Admission)
	}
	if cfg.Conversion.Format != "png" || cfg.Admission.MixedMode() {
		t.Fatalf("original config mutated: %+v %+v", cfg.Conversion, cfg.Admission)
	}
}

func TestConvertCancelledRunIsNotAFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.input(t, "a.heic", "first")
	env.input(t, "b.heic", "second")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, _, err := runCLIContext(t, ctx, []string{"convert", env.inputDir}, env.configPath)
	if err != nil {
		t.Fatalf("expected cancelled run to succeed, got %v\n%s", err, out)
	}
	requireContains(t, out, "Conversion cancelled; nothing was written.")
	if names := listDir(t, env.outputDir); len(names) != 0 {
		t.Fatalf("expected nothing saved, got %v", names)
	}
}
