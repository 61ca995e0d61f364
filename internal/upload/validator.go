package upload

import "strings"

// DefaultExtensions is the allow-set used when none is configured.
var DefaultExtensions = []string{"png", "jpg", "jpeg"}

// Validator gates uploads by filename extension. It never looks at file
// contents, so a renamed non-image passes and is caught later by decoding.
type Validator struct {
	allowed map[string]struct{}
	order   []string
}

// NewValidator builds a validator for the given extensions (case-insensitive,
// with or without a leading dot).
func NewValidator(extensions []string) *Validator {
	v := &Validator{allowed: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if _, dup := v.allowed[ext]; ext == "" || dup {
			continue
		}
		v.allowed[ext] = struct{}{}
		v.order = append(v.order, ext)
	}
	return v
}

// Extension returns the lowercased text after the last '.' of filename and
// whether it is allowed.
func (v *Validator) Extension(filename string) (string, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", false
	}
	ext := strings.ToLower(filename[idx+1:])
	_, ok := v.allowed[ext]
	return ext, ok
}

// Allowed reports whether filename carries an allowed extension.
func (v *Validator) Allowed(filename string) bool {
	_, ok := v.Extension(filename)
	return ok
}

// AllowedList returns the allow-set in configured order.
func (v *Validator) AllowedList() []string {
	list := make([]string, len(v.order))
	copy(list, v.order)
	return list
}
