package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubMagick copies its input to its output, prints a version line, and fails
// on inputs containing the word "corrupt".
const stubMagick = `#!/bin/sh
if [ "$1" = "--version" ]; then
	echo "Version: ImageMagick 7.1.1-stub"
	exit 0
fi
if grep -q corrupt "$1"; then
	echo "magick: improper image header" >&2
	exit 1
fi
cp "$1" "$4"
`

type cliTestEnv struct {
	baseDir    string
	inputDir   string
	outputDir  string
	logDir     string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("HEICBATCH_OUTPUT_DIR", "")

	env := &cliTestEnv{
		baseDir:    base,
		inputDir:   filepath.Join(base, "input"),
		outputDir:  filepath.Join(base, "output"),
		logDir:     filepath.Join(base, "logs"),
		configPath: filepath.Join(base, "heicbatch.toml"),
	}
	if err := os.MkdirAll(env.inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	binary := filepath.Join(base, "bin", "magick")
	if err := os.MkdirAll(filepath.Dir(binary), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(binary, []byte(stubMagick), 0o755); err != nil {
		t.Fatalf("write stub converter: %v", err)
	}

	writeTestConfig(t, env.configPath, env, binary)
	return env
}

func writeTestConfig(t *testing.T, path string, env *cliTestEnv, binary string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\noutput_dir = %q\nlog_dir = %q\n\n[conversion]\nyield_ms = 0\n\n[converter]\ntool = \"magick\"\nbinary = %q\n\n[output]\ntimestamp_archive = false\n",
		env.outputDir,
		env.logDir,
		binary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// input writes an input file under the env's input directory and returns its path.
func (e *cliTestEnv) input(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.inputDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args, configPath)
}

func runCLIContext(t *testing.T, ctx context.Context, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}
