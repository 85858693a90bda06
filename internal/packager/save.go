package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"heicbatch/internal/fileutil"
	"heicbatch/internal/preflight"
	"heicbatch/internal/services"
)

// LockFileName guards an output directory while heicbatch writes into it.
const LockFileName = ".heicbatch.lock"

const lockRetryDelay = 50 * time.Millisecond

// Save writes out under dir, never overwriting an existing file; a taken name
// gets the " (n)" suffix. It returns the written path.
func Save(ctx context.Context, dir string, out Output) (string, error) {
	paths, err := saveFiles(ctx, dir, []Entry{{Name: out.Name, Data: out.Data}})
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// SaveEntries writes every entry as its own file under dir.
func SaveEntries(ctx context.Context, dir string, entries []Entry) ([]string, error) {
	if len(entries) == 0 {
		return nil, ErrNothingToPackage
	}
	return saveFiles(ctx, dir, entries)
}

func saveFiles(ctx context.Context, dir string, entries []Entry) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPackaging, "save", "create output directory", dir, err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, services.Wrap(services.ErrPackaging, "save", "lock output directory", dir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrPackaging, "save", "lock output directory", "another heicbatch run holds "+dir, nil)
	}
	// The lock file only lives for the duration of the save.
	defer func() {
		_ = os.Remove(lock.Path())
		_ = lock.Unlock()
	}()

	var need uint64
	for _, entry := range entries {
		need += uint64(len(entry.Data))
	}
	if free, err := preflight.FreeBytes(dir); err == nil && free < need {
		return nil, services.Wrap(services.ErrPackaging, "save", "check free space",
			fmt.Sprintf("need %s, %s available", humanize.IBytes(need), humanize.IBytes(free)), nil)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		target, err := fileutil.UniquePath(dir, entry.Name)
		if err != nil {
			return paths, services.Wrap(services.ErrPackaging, "save", "choose name", entry.Name, err)
		}
		if err := fileutil.WriteFileAtomic(target, entry.Data, 0o644); err != nil {
			return paths, services.Wrap(services.ErrPackaging, "save", "write", entry.Name, err)
		}
		paths = append(paths, target)
	}
	return paths, nil
}
