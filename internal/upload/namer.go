package upload

import (
	"strings"

	"github.com/google/uuid"
)

// NewStorageName returns a random name for a stored upload: 32 hex digits of
// a version 4 UUID followed by the lowercased extension. The original
// filename never contributes to the result.
func NewStorageName(ext string) string {
	id := uuid.New()
	name := strings.ReplaceAll(id.String(), "-", "")
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// UploadID returns the identifier part of a storage name.
func UploadID(storageName string) string {
	if idx := strings.LastIndex(storageName, "."); idx >= 0 {
		return storageName[:idx]
	}
	return storageName
}

// IsStorageName reports whether name has the shape NewStorageName produces:
// 32 lowercase hex digits, a dot, then a non-empty lowercase extension.
func IsStorageName(name string) bool {
	id, ext, found := strings.Cut(name, ".")
	if !found || len(id) != 32 || ext == "" || ext != strings.ToLower(ext) || strings.Contains(ext, ".") {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
