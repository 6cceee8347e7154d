package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// InitRuntime initializes the process-wide ONNX Runtime environment. Only the
// first call has any effect; libPath may be empty to use the library's
// default lookup.
func InitRuntime(libPath string) error {
	runtimeOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			runtimeErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return runtimeErr
}

func DestroyRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

type onnxNetwork struct {
	session     *ort.DynamicAdvancedSession
	inputName   string
	outputName  string
	inputShape  []int64
	outputShape []int64
}

func openONNX(path string) (*onnxNetwork, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model io: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("expected one input and at least one output, got %d and %d", len(inputs), len(outputs))
	}

	input, output := inputs[0], outputs[0]
	session, err := ort.NewDynamicAdvancedSession(path, []string{input.Name}, []string{output.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxNetwork{
		session:     session,
		inputName:   input.Name,
		outputName:  output.Name,
		inputShape:  fixedShape(input.Dimensions),
		outputShape: fixedShape(output.Dimensions),
	}, nil
}

// fixedShape replaces dynamic dimensions with 1, which is the batch size used
// for every request.
func fixedShape(dims ort.Shape) []int64 {
	shape := make([]int64, len(dims))
	for i, dim := range dims {
		if dim < 1 {
			dim = 1
		}
		shape[i] = dim
	}
	return shape
}

func (n *onnxNetwork) Forward(input Tensor) ([]float32, error) {
	in, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(n.outputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := n.session.Run([]ort.ArbitraryTensor{in}, []ort.ArbitraryTensor{out}); err != nil {
		return nil, err
	}

	result := make([]float32, len(out.GetData()))
	copy(result, out.GetData())
	return result, nil
}

func (n *onnxNetwork) InputShape() []int64 {
	return n.inputShape
}

func (n *onnxNetwork) OutputWidth() int {
	return int(Tensor{Shape: n.outputShape}.Size())
}

func (n *onnxNetwork) Close() error {
	return n.session.Destroy()
}

// ONNXLoader executes full models directly and rebuilds state-dict artifacts
// on top of the backbone graph found next to them.
type ONNXLoader struct {
	LibraryPath string
}

func (l *ONNXLoader) Load(spec Spec, art *Artifact, numClasses int) (Network, LoadReport, error) {
	if err := InitRuntime(l.LibraryPath); err != nil {
		return nil, LoadReport{}, err
	}

	switch art.Kind {
	case FullModel:
		network, err := openONNX(art.Path)
		if err != nil {
			return nil, LoadReport{}, err
		}
		return network, LoadReport{}, nil
	case NestedStateDict, BareStateDict:
		if spec.Backbone == "" {
			return nil, LoadReport{}, errors.New("no backbone architecture for parameter dictionaries")
		}

		backbone, err := openONNX(filepath.Join(filepath.Dir(art.Path), spec.Backbone))
		if err != nil {
			return nil, LoadReport{}, fmt.Errorf("backbone: %w", err)
		}

		network, report, err := attachHead(spec, backbone, art.Params, numClasses)
		if err != nil {
			backbone.Close()
			return nil, report, err
		}
		return network, report, nil
	default:
		return nil, LoadReport{}, fmt.Errorf("unsupported artifact kind %s", art.Kind)
	}
}
