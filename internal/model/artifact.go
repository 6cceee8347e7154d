package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

type ArtifactKind int

const (
	// FullModel is a complete graph the runtime can execute as-is.
	FullModel ArtifactKind = iota
	// NestedStateDict is a checkpoint mapping with parameters under "state_dict".
	NestedStateDict
	// BareStateDict is a mapping of parameter name to tensor.
	BareStateDict
)

const stateDictKey = "state_dict"

func (k ArtifactKind) String() string {
	switch k {
	case FullModel:
		return "full_model"
	case NestedStateDict:
		return "nested_state_dict"
	case BareStateDict:
		return "bare_state_dict"
	default:
		return fmt.Sprintf("artifact_kind(%d)", int(k))
	}
}

type Artifact struct {
	Kind   ArtifactKind
	Path   string
	Params map[string]Tensor
}

func (a *Artifact) ParamNames() []string {
	names := make([]string, 0, len(a.Params))
	for name := range a.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// wireTensor is the msgpack layout of a parameter. Data is decoded as float64
// so checkpoints written with either float width decode.
type wireTensor struct {
	Shape []int64   `msgpack:"shape"`
	Data  []float64 `msgpack:"data"`
}

// ResolveArtifact returns the first candidate that exists in dir.
func ResolveArtifact(dir string, candidates []string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return path, nil
	}

	return "", newError(ErrArtifactNotFound, "", fmt.Errorf("expected one of [%s] in %s", strings.Join(candidates, ", "), dir))
}

// DecodeArtifact detects the serialization shape of the file at path.
// Anything that is not a msgpack mapping is handed to the runtime as a full
// model and validated there.
func DecodeArtifact(path string) (*Artifact, error) {
	if strings.EqualFold(filepath.Ext(path), ".onnx") {
		return &Artifact{Kind: FullModel, Path: path}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var top map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(content, &top); err != nil {
		return &Artifact{Kind: FullModel, Path: path}, nil
	}

	if raw, ok := top[stateDictKey]; ok {
		var nested map[string]msgpack.RawMessage
		if err := msgpack.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("%q is not a parameter mapping: %w", stateDictKey, err)
		}

		params, err := decodeParams(nested)
		if err != nil {
			return nil, err
		}
		return &Artifact{Kind: NestedStateDict, Path: path, Params: params}, nil
	}

	params, err := decodeParams(top)
	if err != nil {
		return nil, err
	}
	return &Artifact{Kind: BareStateDict, Path: path, Params: params}, nil
}

func decodeParams(raw map[string]msgpack.RawMessage) (map[string]Tensor, error) {
	params := make(map[string]Tensor, len(raw))
	for name, value := range raw {
		var wire wireTensor
		if err := msgpack.Unmarshal(value, &wire); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}

		tensor := Tensor{Shape: wire.Shape, Data: make([]float32, len(wire.Data))}
		for i, v := range wire.Data {
			tensor.Data[i] = float32(v)
		}
		if tensor.Size() != int64(len(tensor.Data)) {
			return nil, fmt.Errorf("parameter %q: shape %v does not match %d values", name, tensor.Shape, len(tensor.Data))
		}

		params[name] = tensor
	}

	return params, nil
}
