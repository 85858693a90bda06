package main

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"heicbatch/internal/config"
	"heicbatch/internal/queue"
	"heicbatch/internal/textutil"
)

// collectInputs expands args into file paths. Directories are walked and
// contribute only files with a recognized image extension; explicit file
// arguments are always kept so admission can report why they were rejected.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("inspect path %q: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}

		var found []string
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if p != path && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && textutil.Extension(d.Name()) != "" {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan directory %q: %w", path, err)
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files found")
	}
	return paths, nil
}

// readInputs loads each admissible path into a submission. Files whose name or
// size the policy refuses, and files beyond the batch limit, are rejected from
// their metadata without being read. The media type comes from the extension
// and stays empty when the platform has no mapping for it.
func readInputs(paths []string, policy queue.Policy) ([]queue.RawFile, []queue.Rejection, error) {
	var (
		files    []queue.RawFile
		rejected []queue.Rejection
	)
	for _, path := range paths {
		name := filepath.Base(path)
		if _, reason := policy.CheckName(name); reason != "" {
			rejected = append(rejected, queue.Rejection{Name: name, Reason: reason})
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("inspect %q: %w", path, err)
		}
		if reason := policy.CheckSize(info.Size()); reason != "" {
			rejected = append(rejected, queue.Rejection{Name: name, Reason: reason})
			continue
		}
		if policy.MaxFiles > 0 && len(files) >= policy.MaxFiles {
			rejected = append(rejected, queue.Rejection{Name: name, Reason: policy.BatchLimitReason()})
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %q: %w", path, err)
		}
		files = append(files, queue.RawFile{
			Name:     name,
			MIMEType: mimeTypeForPath(path),
			Data:     data,
		})
	}
	return files, rejected, nil
}

func mimeTypeForPath(path string) string {
	switch textutil.Extension(path) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}
