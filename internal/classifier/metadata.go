package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// Metadata describes a model artifact. It is optional; when shipped next to
// the model it guards against deploying an artifact trained on a different
// class ordering.
type Metadata struct {
	Classes   []string `json:"classes"`
	ImageSize int      `json:"image_size"`
}

// LoadMetadata reads a metadata file.
func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read metadata: %w", ErrModelUnavailable, err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: parse metadata: %w", ErrModelUnavailable, err)
	}
	return &meta, nil
}

// Check verifies the metadata agrees with the built-in class ordering and
// the configured input size.
func (m *Metadata) Check(imageSize int) error {
	if len(m.Classes) != NumClasses {
		return fmt.Errorf("%w: metadata lists %d classes, expected %d", ErrModelUnavailable, len(m.Classes), NumClasses)
	}
	for i, name := range m.Classes {
		if name != classNames[i] {
			return fmt.Errorf("%w: class %d is %q, expected %q", ErrModelUnavailable, i, name, classNames[i])
		}
	}
	if m.ImageSize != 0 && m.ImageSize != imageSize {
		return fmt.Errorf("%w: metadata image size %d does not match configured %d", ErrModelUnavailable, m.ImageSize, imageSize)
	}
	return nil
}
