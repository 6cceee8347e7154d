package model

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Handle is a loaded network with its labels. It is never mutated after
// construction and is shared by all callers.
type Handle struct {
	network  Network
	labels   []string
	report   LoadReport
	artifact string
	kind     ArtifactKind
}

func (h *Handle) Labels() []string {
	return slices.Clone(h.labels)
}

func (h *Handle) Report() LoadReport {
	return h.report
}

func (h *Handle) Artifact() string {
	return h.artifact
}

func (h *Handle) Kind() ArtifactKind {
	return h.kind
}

// Classifier owns one lazily loaded model. The first call to Initialize (or
// Predict) loads it; concurrent callers wait for that load and observe the
// same handle or error. A failed load is never retried.
type Classifier struct {
	spec   Spec
	dir    string
	loader Loader
	logger *zap.Logger

	mu     sync.Mutex
	state  atomic.Int32
	handle *Handle
	err    error
}

func NewClassifier(spec Spec, dir string, loader Loader, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Classifier{
		spec:   spec,
		dir:    dir,
		loader: loader,
		logger: logger.With(zap.String("model", spec.Name)),
	}
}

func (c *Classifier) Name() string {
	return c.spec.Name
}

func (c *Classifier) State() State {
	return State(c.state.Load())
}

func (c *Classifier) Initialize() (*Handle, error) {
	// handle and err are written before the state is published.
	switch c.State() {
	case StateReady:
		return c.handle, nil
	case StateFailed:
		return nil, c.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateReady:
		return c.handle, nil
	case StateFailed:
		return nil, c.err
	}

	c.state.Store(int32(StateLoading))
	handle, err := c.load()
	if err != nil {
		c.err = err
		c.state.Store(int32(StateFailed))
		c.logger.Error("Failed to load model", zap.Error(err))
		return nil, err
	}

	c.handle = handle
	c.state.Store(int32(StateReady))
	return handle, nil
}

func (c *Classifier) load() (*Handle, error) {
	path, err := ResolveArtifact(c.dir, c.spec.Candidates)
	if err != nil {
		return nil, c.tag(err)
	}

	labels, err := c.loadLabels()
	if err != nil {
		return nil, err
	}

	art, err := DecodeArtifact(path)
	if err != nil {
		return nil, newError(ErrModelLoadFailed, c.spec.Name, fmt.Errorf("%s: %w", path, err))
	}

	network, report, err := c.loader.Load(c.spec, art, len(labels))
	if err != nil {
		return nil, newError(ErrModelLoadFailed, c.spec.Name, fmt.Errorf("%s: %w", path, err))
	}

	if err := c.checkNetwork(network, len(labels)); err != nil {
		network.Close()
		return nil, newError(ErrModelLoadFailed, c.spec.Name, fmt.Errorf("%s: %w", path, err))
	}

	c.logger.Info("Model loaded",
		zap.String("artifact", path),
		zap.Stringer("kind", art.Kind),
		zap.Int("labels", len(labels)),
		zap.Int("params_loaded", len(report.Loaded)),
		zap.Int("params_frozen", len(report.Frozen)))
	if !report.Clean() {
		c.logger.Warn("Parameter names did not match the architecture",
			zap.Strings("missing", report.Missing),
			zap.Strings("unexpected", report.Unexpected))
	}

	return &Handle{
		network:  network,
		labels:   labels,
		report:   report,
		artifact: path,
		kind:     art.Kind,
	}, nil
}

func (c *Classifier) loadLabels() ([]string, error) {
	labels, err := LoadLabels(filepath.Join(c.dir, c.spec.LabelFile))
	switch {
	case err == nil:
		return labels, nil
	case errors.Is(err, ErrLabelFileMissing) && len(c.spec.DefaultLabels) > 0:
		return slices.Clone(c.spec.DefaultLabels), nil
	case errors.Is(err, ErrLabelFileMissing), errors.Is(err, ErrEmptyLabelSet):
		return nil, c.tag(err)
	default:
		return nil, newError(ErrModelLoadFailed, c.spec.Name, err)
	}
}

// tag names this classifier on errors raised by package helpers.
func (c *Classifier) tag(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Model == "" {
		e.Model = c.spec.Name
	}
	return err
}

func (c *Classifier) checkNetwork(network Network, numLabels int) error {
	if err := c.spec.Activation.CheckLabels(numLabels); err != nil {
		return err
	}
	if want := c.spec.Preprocessor.Shape(); !sameShape(network.InputShape(), want) {
		return fmt.Errorf("network input shape %v does not match preprocessed shape %v", network.InputShape(), want)
	}
	if want := c.spec.Activation.OutputWidth(numLabels); network.OutputWidth() != want {
		return fmt.Errorf("network has %d outputs but %d labels need %d", network.OutputWidth(), numLabels, want)
	}
	return nil
}

// Predict decodes image bytes and classifies them.
func (c *Classifier) Predict(data []byte) (*Prediction, error) {
	handle, err := c.Initialize()
	if err != nil {
		return nil, err
	}

	img, _, err := DecodeImage(data)
	if err != nil {
		return nil, c.tag(err)
	}

	return c.predict(handle, img)
}

func (c *Classifier) PredictImage(img image.Image) (*Prediction, error) {
	handle, err := c.Initialize()
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, newError(ErrImageDecode, c.spec.Name, errors.New("image has no pixels"))
	}

	return c.predict(handle, img)
}

func (c *Classifier) predict(handle *Handle, img image.Image) (*Prediction, error) {
	input, err := c.spec.Preprocessor.Preprocess(img)
	if err != nil {
		return nil, newError(ErrInferenceFailed, c.spec.Name, err)
	}

	output, err := handle.network.Forward(input)
	if err != nil {
		return nil, newError(ErrInferenceFailed, c.spec.Name, err)
	}

	distribution, err := c.spec.Activation.Apply(output, len(handle.labels))
	if err != nil {
		return nil, newError(ErrInferenceFailed, c.spec.Name, err)
	}

	best := Argmax(distribution)
	return &Prediction{
		Label:        handle.labels[best],
		Confidence:   distribution[best],
		Distribution: distribution,
	}, nil
}

// Close releases the network. Later calls fail with ErrClassifierClosed, or
// keep failing with the load error if loading had failed.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.State()
	if state == StateFailed {
		return nil
	}

	c.err = newError(ErrClassifierClosed, c.spec.Name, os.ErrClosed)
	c.state.Store(int32(StateFailed))

	if state == StateReady {
		return c.handle.network.Close()
	}
	return nil
}
