package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// PhotoStorage persists student photos on disk, one subdirectory per group.
type PhotoStorage struct {
	baseDir string
}

// NewPhotoStorage ensures the base directory exists and returns a handle.
func NewPhotoStorage(baseDir string) (*PhotoStorage, error) {
	if baseDir == "" {
		baseDir = "./photos"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create photos directory: %w", err)
	}
	return &PhotoStorage{baseDir: baseDir}, nil
}

// Save writes photo bytes under group/filename and returns the relative path.
func (s *PhotoStorage) Save(group, filename string, data []byte) (string, error) {
	rel := filepath.Join(SafeFilename(group), SafeFilename(filename))
	path := s.resolve(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare group directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return rel, nil
}

// SaveStream copies from reader into the target photo path.
func (s *PhotoStorage) SaveStream(group, filename string, r io.Reader) (string, error) {
	rel := filepath.Join(SafeFilename(group), SafeFilename(filename))
	path := s.resolve(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare group directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write photo stream: %w", err)
	}
	return rel, nil
}

// Open returns a read-only handle for the stored photo.
func (s *PhotoStorage) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return file, nil
}

// Delete removes a stored photo if present.
func (s *PhotoStorage) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	if err := os.Remove(s.resolve(relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path.
func (s *PhotoStorage) Path(relPath string) string {
	return s.resolve(relPath)
}

func (s *PhotoStorage) resolve(relPath string) string {
	clean := filepath.Clean("/" + relPath)
	return filepath.Join(s.baseDir, clean)
}

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]`)

// SafeFilename strips characters unfit for a filesystem path while keeping
// non-latin letters (group and student names are frequently cyrillic).
func SafeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return unsafeFilenameChars.ReplaceAllString(name, "")
}
