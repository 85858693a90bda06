package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxSuffix bounds the " (n)" search so a full directory cannot loop forever.
const maxSuffix = 10000

// SuffixedName inserts " (n)" before the extension of name. n <= 0 returns
// name unchanged.
func SuffixedName(name string, n int) string {
	if n <= 0 {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// UniquePath returns a path under dir for name that does not exist yet,
// applying the " (n)" suffix rule when the plain name is taken.
func UniquePath(dir, name string) (string, error) {
	for n := 0; n < maxSuffix; n++ {
		candidate := filepath.Join(dir, SuffixedName(name, n))
		if _, err := os.Lstat(candidate); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return candidate, nil
			}
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free name for %q in %q", name, dir)
}

// WriteFileAtomic writes data to a temp file beside dst, verifies the written
// size and SHA256, then renames it into place. The temp file is removed on
// any failure.
func WriteFileAtomic(dst string, data []byte, mode os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(bytes.NewReader(data), srcHasher)
	multi := io.MultiWriter(tmp, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if written != int64(len(data)) {
		return fmt.Errorf("write size mismatch: expected %d bytes, wrote %d bytes", len(data), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return errors.New("write hash mismatch: data corrupted during write")
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
