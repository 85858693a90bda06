package packager

import (
	"strings"

	"github.com/google/uuid"

	"heicbatch/internal/convert"
	"heicbatch/internal/fileutil"
	"heicbatch/internal/queue"
	"heicbatch/internal/textutil"
)

// Entry is one named output file.
type Entry struct {
	JobID  uuid.UUID
	Source string
	Name   string
	Data   []byte
}

// AssignNames names every successful job in admission order. Names are
// compared with textutil.CollisionKey, so "Photo.png" and "photo.png" collide.
// The assignment depends only on job order, names, and format.
func AssignNames(jobs []queue.Job, format convert.Format) []Entry {
	used := make(map[string]struct{}, len(jobs))
	entries := make([]Entry, 0, len(jobs))
	for _, job := range jobs {
		if job.Status != queue.StatusSucceeded {
			continue
		}
		base := textutil.Stem(job.Name) + "." + outputExtension(job, format)
		name := base
		for n := 1; isUsed(used, name); n++ {
			name = fileutil.SuffixedName(base, n)
		}
		used[textutil.CollisionKey(name)] = struct{}{}
		entries = append(entries, Entry{
			JobID:  job.ID,
			Source: job.Name,
			Name:   name,
			Data:   job.Output,
		})
	}
	return entries
}

func isUsed(used map[string]struct{}, name string) bool {
	_, ok := used[textutil.CollisionKey(name)]
	return ok
}

// outputExtension keeps a pass-through file's own extension.
func outputExtension(job queue.Job, format convert.Format) string {
	if job.Passthrough {
		if ext := textutil.Extension(job.Name); ext != "" {
			return strings.TrimPrefix(ext, ".")
		}
	}
	return format.Extension()
}

func mimeTypeFor(name string) string {
	switch textutil.Extension(name) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	if strings.HasSuffix(strings.ToLower(name), ".webp") {
		return "image/webp"
	}
	return "application/octet-stream"
}
