package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"heicbatch/internal/config"
	"heicbatch/internal/deps"
	"heicbatch/internal/services"
	"heicbatch/internal/textutil"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the external converter.
type Option func(*External)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *External) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithTempDir sets the parent directory for per-call scratch directories.
func WithTempDir(dir string) Option {
	return func(e *External) {
		e.tempDir = strings.TrimSpace(dir)
	}
}

// External converts images by running a command-line tool.
type External struct {
	tool    string
	binary  string
	tempDir string
	exec    Executor
}

// NewExternal constructs a converter for one of the supported tools.
func NewExternal(tool, binary string, opts ...Option) (*External, error) {
	tool = strings.ToLower(strings.TrimSpace(tool))
	switch tool {
	case config.ConverterToolVips, config.ConverterToolHeifDec, config.ConverterToolImageMagic:
	default:
		return nil, services.Wrap(services.ErrConfiguration, "convert", "init",
			fmt.Sprintf("unsupported converter tool %q", tool), nil)
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = tool
	}
	ext := &External{
		tool:   tool,
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(ext)
	}
	return ext, nil
}

// NewFromConfig builds the configured converter wrapped with JPEG/PNG
// pass-through.
func NewFromConfig(cfg *config.Config, opts ...Option) (Primitive, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	ext, err := NewExternal(cfg.Converter.Tool, cfg.ConverterBinary(), opts...)
	if err != nil {
		return nil, err
	}
	return Passthrough(ext), nil
}

// Tool returns the converter tool name.
func (e *External) Tool() string {
	return e.tool
}

// HealthCheck reports whether the converter binary is installed.
func (e *External) HealthCheck() deps.Status {
	return deps.CheckConverter(e.tool, e.binary)
}

// Convert writes the source to a private scratch directory, runs the tool, and
// returns the encoded output.
func (e *External) Convert(ctx context.Context, req Request) ([]byte, error) {
	if len(req.Source) == 0 {
		return nil, services.Wrap(services.ErrValidation, "convert", e.tool, "source is empty", nil)
	}
	format := req.Format
	if format == "" {
		format = FormatPNG
	}
	if e.tool == config.ConverterToolHeifDec && format == FormatWebP {
		return nil, services.Wrap(services.ErrValidation, "convert", e.tool, "heif-dec cannot encode webp", nil)
	}

	workDir, err := os.MkdirTemp(e.tempDir, "heicbatch-*")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "convert", "scratch dir", "", err)
	}
	defer os.RemoveAll(workDir)

	inExt := textutil.Extension(req.Name)
	if inExt == "" {
		inExt = ".heic"
	}
	inPath := filepath.Join(workDir, "input"+inExt)
	outPath := filepath.Join(workDir, "output."+format.Extension())
	if err := os.WriteFile(inPath, req.Source, 0o600); err != nil {
		return nil, services.Wrap(services.ErrTransient, "convert", "write input", "", err)
	}

	args := e.args(inPath, outPath, format, clampQuality(req.Quality))
	output, err := e.exec.Run(ctx, e.binary, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, services.Wrap(services.ErrTimeout, "convert", e.tool, "conversion timed out", ctxErr)
			}
			return nil, ctxErr
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, services.Wrap(services.ErrExternalTool, "convert", e.tool, "converter not runnable", err)
		}
		return nil, services.Wrap(services.ErrConversion, "convert", e.tool, lastLine(output), err)
	}

	encoded, err := os.ReadFile(outPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConversion, "convert", e.tool, "no output produced", err)
	}
	if len(encoded) == 0 {
		return nil, services.Wrap(services.ErrConversion, "convert", e.tool, "empty output produced", nil)
	}
	return encoded, nil
}

func (e *External) args(inPath, outPath string, format Format, quality int) []string {
	q := strconv.Itoa(quality)
	switch e.tool {
	case config.ConverterToolHeifDec:
		return []string{"-q", q, inPath, outPath}
	case config.ConverterToolImageMagic:
		return []string{inPath, "-quality", q, outPath}
	default:
		target := outPath
		if format != FormatPNG {
			target += "[Q=" + q + "]"
		}
		return []string{"copy", inPath, target}
	}
}

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return 90
	case q > 100:
		return 100
	default:
		return q
	}
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "converter failed"
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
