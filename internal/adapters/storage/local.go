package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"eventcertificates/internal/domain"
)

type localStorage struct {
	root string
}

// NewLocalStorage returns an ArtifactStorage rooted at the given media directory, creating it if needed.
func NewLocalStorage(root string) (domain.ArtifactStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &localStorage{root: root}, nil
}

// cleanName normalises a storage name and refuses anything escaping the root.
func cleanName(name string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		return "", fmt.Errorf("%w: empty storage name", domain.ErrInvalidInput)
	}
	return clean, nil
}

// alternateName inserts a short random suffix before the extension.
func alternateName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:8] + ext
}

func (s *localStorage) fullPath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *localStorage) Store(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	// Existing files are never overwritten; the stored name gets a suffix instead.
	if _, err := os.Stat(s.fullPath(name)); err == nil {
		name = alternateName(name)
	}

	dest := s.fullPath(name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	// Write to a sibling temp file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return name, nil
}

func (s *localStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.fullPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *localStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(s.fullPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
