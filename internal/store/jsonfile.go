package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FilePersister keeps the snapshot in a JSON file.
type FilePersister struct {
	path   string
	codec  Codec
	logger *slog.Logger
}

// NewFilePersister returns a persister for the JSON file at path.
func NewFilePersister(path string, codec Codec, logger *slog.Logger) *FilePersister {
	return &FilePersister{path: path, codec: codec, logger: logger}
}

// Load reads the snapshot. A missing file yields an empty store. An
// unreadable or corrupt file is logged and also yields an empty store.
func (f *FilePersister) Load(_ context.Context) (*Store, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Info("no cache file yet, starting empty", "path", f.path)
		return New(), nil
	}
	if err != nil {
		f.logger.Warn("cannot read cache file, starting empty", "path", f.path, "error", err)
		return New(), nil
	}

	postings, skipped, err := f.codec.Decode(data)
	if err != nil {
		f.logger.Warn("corrupt cache file, starting empty", "path", f.path, "error", err)
		return New(), nil
	}
	if skipped > 0 {
		f.logger.Warn("skipped unreadable cache records", "path", f.path, "skipped", skipped)
	}
	f.logger.Debug("loaded cache", "path", f.path, "postings", len(postings))
	return New(postings...), nil
}

// Save writes the snapshot through a temp file and rename.
func (f *FilePersister) Save(_ context.Context, s *Store) error {
	data, err := f.codec.Encode(s.All())
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache file %s: %w", f.path, err)
	}
	return nil
}

// Close is a no-op.
func (f *FilePersister) Close() error { return nil }
