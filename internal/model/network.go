package model

import "fmt"

// Network is a loaded, inference-only network. Forward must be safe for
// concurrent use.
type Network interface {
	Forward(input Tensor) ([]float32, error)
	// InputShape is the shape Forward expects, dynamic dimensions fixed to 1.
	InputShape() []int64
	// OutputWidth is the number of values Forward returns.
	OutputWidth() int
	Close() error
}

// Loader builds a Network from a decoded artifact.
type Loader interface {
	Load(spec Spec, art *Artifact, numClasses int) (Network, LoadReport, error)
}

// headNetwork runs a backbone that yields pooled features and applies a
// Linear head on top.
type headNetwork struct {
	backbone Network
	head     *Linear
}

func (n *headNetwork) Forward(input Tensor) ([]float32, error) {
	features, err := n.backbone.Forward(input)
	if err != nil {
		return nil, err
	}
	return n.head.Forward(features)
}

func (n *headNetwork) InputShape() []int64 {
	return n.backbone.InputShape()
}

func (n *headNetwork) OutputWidth() int {
	return n.head.Out
}

func (n *headNetwork) Close() error {
	return n.backbone.Close()
}

// attachHead rebuilds the classifier from a parameter dictionary: a fixed
// backbone plus a Linear head sized to numClasses, loaded non-strictly.
func attachHead(spec Spec, backbone Network, params map[string]Tensor, numClasses int) (Network, LoadReport, error) {
	if width := backbone.OutputWidth(); width != spec.FeatureWidth {
		return nil, LoadReport{}, fmt.Errorf("backbone produces %d features, expected %d", width, spec.FeatureWidth)
	}

	head := NewLinear(spec.FeatureWidth, numClasses)
	report, err := head.LoadParams(spec.HeadPrefix, params, spec.FrozenPrefixes)
	if err != nil {
		return nil, report, err
	}

	return &headNetwork{backbone: backbone, head: head}, report, nil
}
