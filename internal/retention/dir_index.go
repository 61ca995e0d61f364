package retention

import (
	"context"
	"os"
	"time"

	"github.com/example/leafcheck/internal/upload"
)

// DirIndex derives upload age from file modification times. It needs no
// external service but only sees the local directory, and only files named
// like stored uploads with an allowed extension count as entries.
type DirIndex struct {
	dir       string
	validator *upload.Validator
}

// NewDirIndex indexes the uploads in dir. A nil validator accepts any
// extension.
func NewDirIndex(dir string, validator *upload.Validator) *DirIndex {
	return &DirIndex{dir: dir, validator: validator}
}

// Track is a no-op: the file's mtime already records when it was stored.
func (d *DirIndex) Track(context.Context, string, time.Time) error {
	return nil
}

// Expired lists stored uploads last modified at or before cutoff.
func (d *DirIndex) Expired(ctx context.Context, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() || !d.owns(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().After(cutoff) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Forget is a no-op: removing the file removes it from the index.
func (d *DirIndex) Forget(context.Context, ...string) error {
	return nil
}

func (d *DirIndex) owns(name string) bool {
	if !upload.IsStorageName(name) {
		return false
	}
	return d.validator == nil || d.validator.Allowed(name)
}
