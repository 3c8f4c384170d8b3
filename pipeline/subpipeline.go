package pipeline

import (
	"context"

	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/op"
)

// SubPipeline exposes a whole pipeline as a batch operation so pipelines
// compose: an outer pipeline step can be an inner pipeline. Inner steps
// append their own provenance records (against the shared graph), so the
// outer engine skips recording for the composite itself.
type SubPipeline struct {
	runner *Runner
	desc   op.Descriptor
}

// AsOperation adapts the runner's pipeline to the operation contract. The
// pipeline must declare exactly one input key: the outer step's routed
// inputs all flow into it.
func (r *Runner) AsOperation(desc op.Descriptor) (*SubPipeline, error) {
	if len(r.pipe.inputKeys) != 1 {
		return nil, errors.Wrapf(errors.ErrWiring,
			"pipeline has %d input keys; composition needs exactly one", len(r.pipe.inputKeys))
	}
	if desc.Name == "" {
		return nil, errors.New("composite operation has no name")
	}
	return &SubPipeline{runner: r, desc: desc}, nil
}

func (s *SubPipeline) Descriptor() op.Descriptor { return s.desc }

// Contract declares no labels: a composite's effective labels depend on its
// inner steps, so wiring checks treat it as a wildcard.
func (s *SubPipeline) Contract() op.Contract { return op.Contract{} }

// RecordsOwnProvenance tells the outer engine the inner steps already
// recorded lineage for every output.
func (s *SubPipeline) RecordsOwnProvenance() bool { return true }

// RunBatch executes the inner pipeline over the routed inputs and returns
// the annotations published under the inner pipeline's output keys.
func (s *SubPipeline) RunBatch(ctx context.Context, inputs []anot.Annotation) ([]anot.Annotation, error) {
	seeded := map[string][]anot.Annotation{
		s.runner.pipe.inputKeys[0]: inputs,
	}
	res, err := s.runner.Execute(ctx, nil, seeded)
	if err != nil {
		return nil, err
	}
	var outputs []anot.Annotation
	for _, key := range s.runner.pipe.outputKeys {
		outputs = append(outputs, res.Outputs[key]...)
	}
	return outputs, nil
}
