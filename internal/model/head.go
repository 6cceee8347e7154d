package model

import (
	"fmt"
	"sort"
	"strings"
)

// Linear is the classification layer attached to a backbone. It starts
// zero-initialized, which yields a uniform distribution until weights load.
type Linear struct {
	In     int
	Out    int
	Weight []float32 // Out x In, row-major
	Bias   []float32
}

func NewLinear(in, out int) *Linear {
	return &Linear{
		In:     in,
		Out:    out,
		Weight: make([]float32, in*out),
		Bias:   make([]float32, out),
	}
}

func (l *Linear) Forward(features []float32) ([]float32, error) {
	if len(features) != l.In {
		return nil, fmt.Errorf("linear layer expects %d features, got %d", l.In, len(features))
	}

	logits := make([]float32, l.Out)
	for o := 0; o < l.Out; o++ {
		row := l.Weight[o*l.In : (o+1)*l.In]
		sum := l.Bias[o]
		for i, f := range features {
			sum += row[i] * f
		}
		logits[o] = sum
	}

	return logits, nil
}

// LoadParams copies matching parameters into the layer without requiring every
// name to match. Names under frozenPrefixes are reported as frozen, every
// other unmatched name on either side is reported as missing or unexpected.
// A matching name with the wrong shape is an error.
func (l *Linear) LoadParams(prefix string, params map[string]Tensor, frozenPrefixes []string) (LoadReport, error) {
	var report LoadReport

	own := map[string]struct {
		shape []int64
		dst   []float32
	}{
		prefix + ".weight": {shape: []int64{int64(l.Out), int64(l.In)}, dst: l.Weight},
		prefix + ".bias":   {shape: []int64{int64(l.Out)}, dst: l.Bias},
	}

	for name, param := range own {
		tensor, ok := params[name]
		if !ok {
			report.Missing = append(report.Missing, name)
			continue
		}
		if !sameShape(tensor.Shape, param.shape) {
			return report, fmt.Errorf("size mismatch for %s: checkpoint has %v, layer has %v", name, tensor.Shape, param.shape)
		}
		copy(param.dst, tensor.Data)
		report.Loaded = append(report.Loaded, name)
	}

	for name := range params {
		if _, ok := own[name]; ok {
			continue
		}
		if hasAnyPrefix(name, frozenPrefixes) {
			report.Frozen = append(report.Frozen, name)
		} else {
			report.Unexpected = append(report.Unexpected, name)
		}
	}

	sort.Strings(report.Loaded)
	sort.Strings(report.Missing)
	sort.Strings(report.Unexpected)
	sort.Strings(report.Frozen)

	return report, nil
}

func sameShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
