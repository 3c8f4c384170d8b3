package pipeline

import (
	"gopkg.in/yaml.v3"

	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/op"
)

// Manifest is the YAML description of a pipeline: named operations wired by
// keys. Operations themselves are code, registered in an op.Registry; the
// manifest only references them by name.
type Manifest struct {
	Name    string         `yaml:"name"`
	Inputs  []string       `yaml:"inputs"`
	Outputs []string       `yaml:"outputs"`
	Steps   []ManifestStep `yaml:"steps"`
}

// ManifestStep wires one named operation.
type ManifestStep struct {
	Operation string   `yaml:"operation"`
	Inputs    []string `yaml:"inputs"`
	Outputs   []string `yaml:"outputs"`
	FailFast  bool     `yaml:"fail_fast"`
}

// ParseManifest decodes a YAML pipeline manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse pipeline manifest")
	}
	if len(m.Steps) == 0 {
		return nil, errors.Wrap(errors.ErrWiring, "manifest declares no steps")
	}
	for i, s := range m.Steps {
		if s.Operation == "" {
			return nil, errors.Wrapf(errors.ErrWiring, "manifest step %d names no operation", i)
		}
	}
	return &m, nil
}

// Build resolves the manifest's operation names against a registry and
// validates the resulting pipeline.
func (m *Manifest) Build(reg *op.Registry) (*Pipeline, error) {
	steps := make([]Step, 0, len(m.Steps))
	for _, s := range m.Steps {
		operation, ok := reg.Get(s.Operation)
		if !ok {
			return nil, errors.NewNotFound("operation %q is not registered", s.Operation)
		}
		steps = append(steps, Step{
			Operation:  operation,
			InputKeys:  s.Inputs,
			OutputKeys: s.Outputs,
			FailFast:   s.FailFast,
		})
	}
	p, err := New(steps, m.Inputs, m.Outputs)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", m.Name)
	}
	return p, nil
}
