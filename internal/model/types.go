package model

import "fmt"

type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Prediction struct {
	Label        string    `json:"label"`
	Confidence   float64   `json:"confidence"`
	Distribution []float64 `json:"distribution"`
}

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

func NewTensor(shape ...int64) Tensor {
	t := Tensor{Shape: shape}
	t.Data = make([]float32, t.Size())
	return t
}

// Size is the number of elements; a tensor without dimensions is a scalar.
func (t Tensor) Size() int64 {
	size := int64(1)
	for _, dim := range t.Shape {
		size *= dim
	}
	return size
}

// LoadReport records how a parameter dictionary was reconciled with the
// rebuilt architecture. Frozen names belong to the backbone, whose weights are
// baked into the backbone graph and are not overwritten.
type LoadReport struct {
	Loaded     []string `json:"loaded"`
	Missing    []string `json:"missing"`
	Unexpected []string `json:"unexpected"`
	Frozen     []string `json:"frozen"`
}

func (r LoadReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}
