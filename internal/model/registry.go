package model

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Registry holds one Classifier per spec for the lifetime of the process.
type Registry struct {
	classifiers map[string]*Classifier
	logger      *zap.Logger
}

func NewRegistry(dir string, specs []Spec, loader Loader, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	classifiers := make(map[string]*Classifier, len(specs))
	for _, spec := range specs {
		classifiers[spec.Name] = NewClassifier(spec, dir, loader, logger)
	}

	return &Registry{classifiers: classifiers, logger: logger}
}

func (r *Registry) Get(name string) (*Classifier, error) {
	classifier, ok := r.classifiers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return classifier, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.classifiers))
	for name := range r.classifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Warmup initializes the named classifiers, all of them when names is empty.
// Every failure is returned; the other classifiers still load.
func (r *Registry) Warmup(names ...string) error {
	if len(names) == 0 {
		names = r.Names()
	}

	var errs []error
	for _, name := range names {
		classifier, err := r.Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := classifier.Initialize(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type ReportCounts struct {
	Loaded     int `json:"loaded"`
	Missing    int `json:"missing"`
	Unexpected int `json:"unexpected"`
	Frozen     int `json:"frozen"`
}

type Status struct {
	Name     string        `json:"name"`
	State    string        `json:"state"`
	Artifact string        `json:"artifact,omitempty"`
	Kind     string        `json:"kind,omitempty"`
	Labels   []string      `json:"labels,omitempty"`
	Report   *ReportCounts `json:"report,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Status describes the classifier without triggering a load.
func (c *Classifier) Status() Status {
	status := Status{Name: c.spec.Name, State: c.State().String()}

	switch c.State() {
	case StateReady:
		handle := c.handle
		status.Artifact = handle.artifact
		status.Kind = handle.kind.String()
		status.Labels = handle.Labels()
		status.Report = &ReportCounts{
			Loaded:     len(handle.report.Loaded),
			Missing:    len(handle.report.Missing),
			Unexpected: len(handle.report.Unexpected),
			Frozen:     len(handle.report.Frozen),
		}
	case StateFailed:
		status.Error = c.err.Error()
	}

	return status
}

func (r *Registry) Statuses() []Status {
	statuses := make([]Status, 0, len(r.classifiers))
	for _, name := range r.Names() {
		statuses = append(statuses, r.classifiers[name].Status())
	}
	return statuses
}

func (r *Registry) Close() error {
	var errs []error
	for _, name := range r.Names() {
		if err := r.classifiers[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
