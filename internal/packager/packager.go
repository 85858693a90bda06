package packager

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"heicbatch/internal/config"
	"heicbatch/internal/convert"
	"heicbatch/internal/queue"
	"heicbatch/internal/services"
)

// ErrNothingToPackage reports a batch without successful jobs.
var ErrNothingToPackage = fmt.Errorf("%w: no successful conversions to package", services.ErrPackaging)

const defaultArchivePrefix = "heic-to"

// Options controls archive naming.
type Options struct {
	ArchivePrefix string
	// Timestamp appends the packaging time in Unix milliseconds.
	Timestamp bool
	Now       func() time.Time
}

// OptionsFromConfig maps the [output] section.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{ArchivePrefix: defaultArchivePrefix}
	}
	return Options{
		ArchivePrefix: cfg.Output.ArchivePrefix,
		Timestamp:     cfg.Output.TimestampArchive,
	}
}

// Output is a packaged download.
type Output struct {
	Name     string
	MIMEType string
	Data     []byte
	Archive  bool
	Entries  []Entry
}

// ArchiveName returns "<prefix>-<ext>.zip", or "<prefix>-<ext>-<unix-ms>.zip"
// when opts.Timestamp is set.
func ArchiveName(format convert.Format, opts Options) string {
	prefix := strings.TrimSpace(opts.ArchivePrefix)
	if prefix == "" {
		prefix = defaultArchivePrefix
	}
	name := prefix + "-" + format.Extension()
	if opts.Timestamp {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		name += "-" + strconv.FormatInt(now().UnixMilli(), 10)
	}
	return name + ".zip"
}

// Package builds the download for jobs.
func Package(jobs []queue.Job, format convert.Format, opts Options) (Output, error) {
	if format == "" {
		format = convert.FormatPNG
	}
	entries := AssignNames(jobs, format)
	switch len(entries) {
	case 0:
		return Output{}, ErrNothingToPackage
	case 1:
		entry := entries[0]
		return Output{
			Name:     entry.Name,
			MIMEType: mimeTypeFor(entry.Name),
			Data:     entry.Data,
			Entries:  entries,
		}, nil
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	data, err := buildArchive(entries, now())
	if err != nil {
		return Output{}, services.Wrap(services.ErrPackaging, "package", "zip", "build archive", err)
	}
	return Output{
		Name:     ArchiveName(format, opts),
		MIMEType: "application/zip",
		Data:     data,
		Archive:  true,
		Entries:  entries,
	}, nil
}

// buildArchive stores entries uncompressed; the encoded images are already
// compressed.
func buildArchive(entries []Entry, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		header := &zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Store,
			Modified: modified,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("add %q: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("write %q: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
