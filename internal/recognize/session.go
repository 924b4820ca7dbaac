package recognize

import (
	"errors"
	"fmt"
	"os"

	onnxrt "github.com/yalue/onnxruntime_go"

	"github.com/dcsflight/cduocr/internal/onnx"
)

// session owns one ONNX model with a single input and output.
type session struct {
	sess       *onnxrt.DynamicAdvancedSession
	inputInfo  onnxrt.InputOutputInfo
	outputInfo onnxrt.InputOutputInfo
}

// newSession validates the model file, initializes the runtime and creates
// an inference session.
func newSession(modelPath string, numThreads int) (*session, error) {
	if modelPath == "" {
		return nil, errors.New("model path cannot be empty")
	}
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if err := onnx.EnsureRuntime(); err != nil {
		return nil, fmt.Errorf("failed to set up ONNX Runtime: %w", err)
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(outputs))
	}

	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying session options: %v\n", err)
		}
	}()
	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	sess, err := onnxrt.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &session{sess: sess, inputInfo: inputs[0], outputInfo: outputs[0]}, nil
}

// run executes one forward pass and returns a copy of the output data and
// its shape.
func (s *session) run(t onnx.Tensor) ([]float32, []int64, error) {
	if s == nil || s.sess == nil {
		return nil, nil, errors.New("session is nil")
	}
	inputTensor, err := onnxrt.NewTensor(onnxrt.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := s.sess.Run([]onnxrt.Value{inputTensor}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	floatTensor, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputs[0])
	}
	data := append([]float32(nil), floatTensor.GetData()...)
	shape := append([]int64(nil), outputs[0].GetShape()...)
	return data, shape, nil
}

// close destroys the underlying session.
func (s *session) close() {
	if s == nil || s.sess == nil {
		return
	}
	if err := s.sess.Destroy(); err != nil {
		fmt.Fprintf(os.Stderr, "Error destroying session: %v\n", err)
	}
	s.sess = nil
}
