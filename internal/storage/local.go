package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrStorage marks every failure to persist an upload.
var ErrStorage = errors.New("storage failure")

// LocalStore writes uploads into a single public directory.
type LocalStore struct {
	dir       string
	publicURL string
	logger    *zap.Logger
}

// NewLocalStore creates dir if needed. publicURL is the URL prefix the
// directory is served under, e.g. "/static/uploads".
func NewLocalStore(dir, publicURL string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create upload dir: %v", ErrStorage, err)
	}
	return &LocalStore{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.Named("local_store"),
	}, nil
}

// Dir returns the directory uploads are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save streams src into name. Data lands in a temp file first and is renamed
// into place only after a complete write, so name either holds the full
// upload or does not exist.
func (s *LocalStore) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrStorage, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("failed to remove temp file", zap.String("path", tmpPath), zap.Error(rmErr))
		}
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("%w: write upload: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: close upload: %v", ErrStorage, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: chmod upload: %v", ErrStorage, err)
	}

	finalPath := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: move upload into place: %v", ErrStorage, err)
	}
	return finalPath, nil
}

// Remove deletes a stored upload. Missing files are not an error.
func (s *LocalStore) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrStorage, name, err)
	}
	return nil
}

// PublicURL returns the URL a stored upload is served at.
func (s *LocalStore) PublicURL(name string) string {
	return path.Join(s.publicURL, name)
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid storage name %q", ErrStorage, name)
	}
	return nil
}
