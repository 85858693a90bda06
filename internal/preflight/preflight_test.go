package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"heicbatch/internal/config"
	"heicbatch/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	testsupport.WriteFile(t, f, 16)
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestFreeBytes(t *testing.T) {
	free, err := FreeBytes(t.TempDir())
	if err != nil {
		t.Fatalf("FreeBytes: %v", err)
	}
	if free == 0 {
		t.Fatal("expected some free space in temp dir")
	}
	if _, err := FreeBytes(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed || !strings.Contains(result.Detail, "free") {
		t.Fatalf("expected pass with tiny minimum, got %+v", result)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatalf("expected failure with impossible minimum, got %+v", result)
	}
}

func TestCheckConverter(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "vips")
	script := []byte("#!/bin/sh\necho 'vips-8.15.1'\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatal(err)
	}

	result := CheckConverter(context.Background(), "vips", stub)
	if !result.Passed {
		t.Fatalf("expected converter check to pass, got %+v", result)
	}
	if !strings.Contains(result.Detail, "vips-8.15.1") {
		t.Fatalf("expected version in detail, got %q", result.Detail)
	}

	missing := CheckConverter(context.Background(), "magick", filepath.Join(binDir, "magick"))
	if missing.Passed {
		t.Fatal("expected missing converter to fail")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if !strings.HasPrefix(cfg.Paths.OutputDir, testsupport.BaseDir(cfg)) {
		t.Fatalf("expected output dir under the test base dir, got %s", cfg.Paths.OutputDir)
	}

	results := RunAll(context.Background(), cfg)
	// output dir + free space + log dir + converter
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_MissingOutputSkipsFreeSpace(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "missing")
	cfg.Paths.LogDir = ""
	cfg.Converter.Binary = filepath.Join(t.TempDir(), "no-such-vips")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected output + converter checks, got %d", len(results))
	}
	for _, r := range results {
		if r.Passed {
			t.Errorf("expected %q to fail", r.Name)
		}
	}
}
