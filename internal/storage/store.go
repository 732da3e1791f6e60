package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store resolves content-addressed video files under the shared upload
// directory. Files are named by their hash with no extension. The directory
// is written by the calendar UI; this process only reads it, except for
// extension-bearing aliases created for platform clients that refuse
// extensionless filenames.
type Store struct {
	BaseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

// Path returns the canonical path for a content hash.
func (s *Store) Path(hash string) string {
	return filepath.Join(s.BaseDir, hash)
}

// Locate returns the canonical path and whether the file exists on disk.
func (s *Store) Locate(hash string) (string, bool) {
	path := s.Path(hash)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	return path, true
}

// EnsureExt presents the file at path under a name carrying the given media
// extension, without duplicating bytes when the filesystem allows it. The
// alias is a hardlink next to the canonical file, with a copy fallback; the
// canonical file is never mutated. Calling it again for an existing alias is
// a no-op.
func EnsureExt(path, ext string) (string, error) {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return path, nil
	}

	alias := path + "." + ext
	if _, err := os.Stat(alias); err == nil {
		return alias, nil
	}

	err := os.Link(path, alias)
	if err == nil || errors.Is(err, os.ErrExist) {
		return alias, nil
	}

	if copyErr := copyFile(path, alias); copyErr != nil {
		return "", fmt.Errorf("failed to alias %s as %s: %w", path, alias, copyErr)
	}
	return alias, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dst)
}
