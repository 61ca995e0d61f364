package classifier

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// probabilityTolerance absorbs float32 rounding in softmax outputs.
const probabilityTolerance = 1e-4

// Adapter implements Classifier on top of an opaque Model.
type Adapter struct {
	model   Model
	pre     Preprocessor
	timeout time.Duration
	logger  *zap.Logger
}

// NewAdapter wires a model with its preprocessing. A zero timeout disables
// the inference deadline.
func NewAdapter(model Model, pre Preprocessor, timeout time.Duration, logger *zap.Logger) *Adapter {
	return &Adapter{
		model:   model,
		pre:     pre,
		timeout: timeout,
		logger:  logger.Named("classifier"),
	}
}

// Classify decodes the image at imagePath, runs the model and returns the
// most probable class.
func (a *Adapter) Classify(ctx context.Context, imagePath string) (*Result, error) {
	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	probs, err := a.predict(ctx, a.pre.Tensor(img))
	if err != nil {
		return nil, err
	}

	result, err := Interpret(probs)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("image classified",
		zap.String("label", result.Label),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("inference_time", time.Since(start)),
	)
	return result, nil
}

func (a *Adapter) predict(ctx context.Context, input []float32) ([]float32, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	type outcome struct {
		probs []float32
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		probs, err := a.model.Predict(input)
		done <- outcome{probs: probs, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrInference, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInference, out.err)
		}
		return out.probs, nil
	}
}

// Interpret picks the argmax of a probability distribution over the class
// identifiers. Ties resolve to the lowest index. Confidence is the winning
// probability as a percentage rounded to two decimals.
func Interpret(probs []float32) (*Result, error) {
	if len(probs) != NumClasses {
		return nil, fmt.Errorf("%w: expected %d outputs, got %d", ErrInference, NumClasses, len(probs))
	}

	maxIdx := 0
	for i, p := range probs {
		v := float64(p)
		if math.IsNaN(v) || v < 0 || v > 1+probabilityTolerance {
			return nil, fmt.Errorf("%w: output %d is not a probability: %v", ErrInference, i, p)
		}
		if p > probs[maxIdx] {
			maxIdx = i
		}
	}

	top := math.Min(float64(probs[maxIdx]), 1)
	return &Result{
		Label:      classNames[maxIdx],
		Confidence: math.Round(top*100*100) / 100,
	}, nil
}
