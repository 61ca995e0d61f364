package classifier

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXOptions locates the model artifact and its tensors.
type ONNXOptions struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
	InputShape  []int64
}

// ONNXModel runs a pre-trained network through onnxruntime. The session is
// shared by all requests; every Predict call allocates its own tensors so no
// locking is needed.
type ONNXModel struct {
	session     *ort.DynamicAdvancedSession
	inputShape  ort.Shape
	outputShape ort.Shape
}

// NewONNXModel initialises the runtime and loads the artifact. Any failure
// is reported as ErrModelUnavailable.
func NewONNXModel(opts ONNXOptions) (*ONNXModel, error) {
	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: initialize onnxruntime: %w", ErrModelUnavailable, err)
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName}, nil)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("%w: load %s: %w", ErrModelUnavailable, opts.ModelPath, err)
	}

	return &ONNXModel{
		session:     session,
		inputShape:  ort.NewShape(opts.InputShape...),
		outputShape: ort.NewShape(1, NumClasses),
	}, nil
}

// Predict runs one forward pass.
func (m *ONNXModel) Predict(input []float32) ([]float32, error) {
	if int64(len(input)) != m.inputShape.FlattenedSize() {
		return nil, fmt.Errorf("expected %d input values, got %d", m.inputShape.FlattenedSize(), len(input))
	}

	inputTensor, err := ort.NewTensor(m.inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](m.outputShape)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := m.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}

	out := make([]float32, NumClasses)
	copy(out, outputTensor.GetData())
	return out, nil
}

// Close releases the session and the runtime.
func (m *ONNXModel) Close() {
	if m.session != nil {
		m.session.Destroy()
	}
	ort.DestroyEnvironment()
}
