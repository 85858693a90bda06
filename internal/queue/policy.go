package queue

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"heicbatch/internal/config"
	"heicbatch/internal/textutil"
)

// Policy decides which submitted files become jobs.
type Policy struct {
	// Mixed additionally admits .jpg/.jpeg/.png files as pass-through jobs.
	Mixed bool
	// MaxFileSize is the per-file ceiling in bytes; zero means unlimited.
	MaxFileSize int64
	// MaxFiles is the per-batch job ceiling; zero means unlimited.
	MaxFiles int
}

// PolicyFromConfig builds the admission policy from the [admission] section.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return Policy{}
	}
	return Policy{
		Mixed:       cfg.Admission.MixedMode(),
		MaxFileSize: cfg.Admission.MaxFileSizeBytes(),
		MaxFiles:    cfg.Admission.MaxFiles,
	}
}

// CheckName reports whether name is admitted as a pass-through file, or the
// reason its extension is refused.
func (p Policy) CheckName(name string) (bool, string) {
	switch textutil.Extension(name) {
	case ".heic", ".heif":
		return false, ""
	case ".jpg", ".jpeg", ".png":
		if p.Mixed {
			return true, ""
		}
	default:
		if p.Mixed {
			return false, "unsupported file type (expected .heic, .heif, .jpg, .jpeg, or .png)"
		}
	}
	return false, "unsupported file type (expected .heic or .heif)"
}

// CheckSize returns the reason a file of size bytes is refused, or "".
func (p Policy) CheckSize(size int64) string {
	if size <= 0 {
		return "file is empty"
	}
	if p.MaxFileSize > 0 && size > p.MaxFileSize {
		return fmt.Sprintf("file is %s, limit is %s",
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(p.MaxFileSize)))
	}
	return ""
}

// BatchLimitReason is the rejection recorded once MaxFiles jobs exist.
func (p Policy) BatchLimitReason() string {
	return fmt.Sprintf("batch limit of %d files reached", p.MaxFiles)
}

// check returns whether f is a pass-through file, or a rejection reason.
func (p Policy) check(f RawFile) (bool, string) {
	passthrough, reason := p.CheckName(f.Name)
	if reason != "" {
		return false, reason
	}
	mimeType := strings.ToLower(strings.TrimSpace(f.MIMEType))
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") {
		return false, fmt.Sprintf("unsupported media type %q", f.MIMEType)
	}
	if reason := p.CheckSize(int64(len(f.Data))); reason != "" {
		return false, reason
	}
	return passthrough, ""
}
