package classifier

import (
	"context"
	"errors"
)

var (
	// ErrDecode means the stored file is not a decodable image.
	ErrDecode = errors.New("image decode failed")
	// ErrModelUnavailable means the model artifact could not be loaded.
	// The process must not serve classification traffic after it.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInference covers model errors, malformed output and timeouts.
	ErrInference = errors.New("inference failed")
)

// Result is the outcome of classifying one image.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier turns a stored image into a label and confidence.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (*Result, error)
}

// Model is the opaque pre-trained network: one preprocessed image in,
// a probability distribution over NumClasses out.
type Model interface {
	Predict(input []float32) ([]float32, error)
}
