package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".json"

// FileBlob stores each document as <dir>/<name>.json and replaces it via write-to-temp-then-rename.
type FileBlob struct {
	dir string
	log *slog.Logger
}

var _ Blob = (*FileBlob)(nil)

// NewFileBlob creates the directory if needed and returns a file-backed Blob.
func NewFileBlob(dir string, log *slog.Logger) (*FileBlob, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
	}

	return &FileBlob{dir: dir, log: log}, nil
}

// Load reads the whole document, returning ErrNotFound when the file is absent.
func (b *FileBlob) Load(_ context.Context, name string) ([]byte, error) {
	path, err := b.path(name)
	if err != nil {
		return nil, err
	}

	// #nosec G304: path is built from a validated document name
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		b.log.Error("failed to read document", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}

// Save writes data to a temp file in the same directory, syncs it and renames it over the target.
func (b *FileBlob) Save(_ context.Context, name string, data []byte) error {
	path, err := b.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			b.log.Warn("failed to remove temp file", slog.String("path", tmpName), slog.Any("error", rmErr))
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		b.log.Error("failed to replace document", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}

// HealthCheck verifies that the storage directory accepts new files.
func (b *FileBlob) HealthCheck(_ context.Context) error {
	probe, err := os.CreateTemp(b.dir, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("storage dir not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

func (b *FileBlob) path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(b.dir, name+fileExt), nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}
