// Package pipeline composes operations into a directed step graph with
// explicit data routing, and executes it over documents while recording
// provenance for every produced annotation.
//
// Data flows through named keys: each step consumes the keys it declares as
// inputs and publishes its outputs under its own keys. Keys have a single
// producer, so the routing graph is a DAG validated entirely at build time.
package pipeline

import (
	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/op"
)

// Step binds an operation into the pipeline graph. InputKeys name the data
// it consumes, OutputKeys the data it publishes. FailFast escalates any item
// failure in this step to a whole-document abort.
type Step struct {
	Operation  op.AnyOperation
	InputKeys  []string
	OutputKeys []string
	FailFast   bool
}

// Pipeline is a validated, immutable step graph ready for execution.
type Pipeline struct {
	steps      []Step
	inputKeys  []string
	outputKeys []string

	// producers maps each key to the index of the step that publishes it.
	producers map[string]int

	// layers are step indexes grouped by topological depth. Steps within a
	// layer have no data dependency on each other and may run concurrently.
	layers [][]int
}

// New validates the step graph and returns an executable pipeline.
// Everything that can fail here fails here, before any document is touched:
// unsatisfied inputs, duplicate producers, incompatible label contracts and
// cycles all surface as ErrWiring (cycles additionally match ErrCycle).
func New(steps []Step, inputKeys, outputKeys []string) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.Wrap(errors.ErrWiring, "pipeline has no steps")
	}

	p := &Pipeline{
		steps:      steps,
		inputKeys:  inputKeys,
		outputKeys: outputKeys,
		producers:  make(map[string]int),
	}

	pipelineInputs := make(map[string]struct{}, len(inputKeys))
	for _, k := range inputKeys {
		pipelineInputs[k] = struct{}{}
	}

	for i, step := range steps {
		if step.Operation == nil {
			return nil, errors.Wrapf(errors.ErrWiring, "step %d has no operation", i)
		}
		name := step.Operation.Descriptor().Name
		if name == "" {
			return nil, errors.Wrapf(errors.ErrWiring, "step %d operation has no name", i)
		}
		if err := validateShape(step); err != nil {
			return nil, errors.Wrapf(err, "step %s", name)
		}
		for _, k := range step.OutputKeys {
			if prev, taken := p.producers[k]; taken {
				return nil, errors.Wrapf(errors.ErrWiring,
					"key %q produced by both %s and %s",
					k, steps[prev].Operation.Descriptor().Name, name)
			}
			if _, shadowed := pipelineInputs[k]; shadowed {
				return nil, errors.Wrapf(errors.ErrWiring,
					"step %s output key %q shadows a pipeline input", name, k)
			}
			p.producers[k] = i
		}
	}

	// Every consumed key must come from a producing step or a pipeline input.
	for i, step := range steps {
		for _, k := range step.InputKeys {
			if _, fromStep := p.producers[k]; fromStep {
				continue
			}
			if _, fromPipeline := pipelineInputs[k]; fromPipeline {
				continue
			}
			return nil, errors.Wrapf(errors.ErrWiring,
				"step %s input key %q is not produced by any step or pipeline input",
				steps[i].Operation.Descriptor().Name, k)
		}
	}
	for _, k := range outputKeys {
		if _, ok := p.producers[k]; !ok {
			return nil, errors.Wrapf(errors.ErrWiring,
				"pipeline output key %q is not produced by any step", k)
		}
	}

	if err := p.checkContracts(); err != nil {
		return nil, err
	}

	layers, err := p.topoLayers()
	if err != nil {
		return nil, err
	}
	p.layers = layers
	return p, nil
}

// validateShape enforces per-kind wiring rules: annotation operations
// publish to exactly one key; document rewriters take no annotation inputs
// and publish the rewritten payload under exactly one key.
func validateShape(step Step) error {
	switch step.Operation.(type) {
	case op.DocRewriter:
		if len(step.InputKeys) != 0 {
			return errors.Wrap(errors.ErrWiring, "document rewriting step takes no input keys")
		}
		if len(step.OutputKeys) != 1 {
			return errors.Wrap(errors.ErrWiring, "document rewriting step needs exactly one output key")
		}
	case op.Operation, op.BatchOperation:
		if len(step.InputKeys) == 0 {
			return errors.Wrap(errors.ErrWiring, "step consumes no input keys")
		}
		if len(step.OutputKeys) != 1 {
			return errors.Wrap(errors.ErrWiring, "step needs exactly one output key")
		}
	default:
		return errors.Wrap(errors.ErrWiring, "operation implements no execution interface")
	}
	return nil
}

// checkContracts matches declared label contracts across connected steps.
// Labels are positional against the step's key lists; an empty label is a
// wildcard. A consumer expecting label X on a key whose producer declares
// label Y is a build-time error, not a silent empty batch at run time.
func (p *Pipeline) checkContracts() error {
	for _, step := range p.steps {
		contract := step.Operation.Contract()
		if len(contract.Inputs) != len(step.InputKeys) {
			continue
		}
		for pos, k := range step.InputKeys {
			want := contract.Inputs[pos]
			if want == "" {
				continue
			}
			producerIdx, ok := p.producers[k]
			if !ok {
				continue // pipeline input, label unknown until run time
			}
			producer := p.steps[producerIdx]
			produced := producer.Operation.Contract().Outputs
			if len(produced) != len(producer.OutputKeys) {
				continue
			}
			for outPos, outKey := range producer.OutputKeys {
				if outKey != k || produced[outPos] == "" || produced[outPos] == want {
					continue
				}
				return errors.Wrapf(errors.ErrWiring,
					"step %s expects label %q on key %q but %s produces %q",
					step.Operation.Descriptor().Name, want, k,
					producer.Operation.Descriptor().Name, produced[outPos])
			}
		}
	}
	return nil
}

// topoLayers groups steps by topological depth with Kahn's algorithm.
// Leftover steps mean a dependency cycle.
func (p *Pipeline) topoLayers() ([][]int, error) {
	indegree := make([]int, len(p.steps))
	dependents := make([][]int, len(p.steps))
	for i, step := range p.steps {
		for _, k := range step.InputKeys {
			producer, ok := p.producers[k]
			if !ok || producer == i {
				continue
			}
			indegree[i]++
			dependents[producer] = append(dependents[producer], i)
		}
	}

	var layers [][]int
	placed := 0
	current := make([]int, 0, len(p.steps))
	for i := range p.steps {
		if indegree[i] == 0 {
			current = append(current, i)
		}
	}
	for len(current) > 0 {
		layers = append(layers, current)
		placed += len(current)
		var next []int
		for _, i := range current {
			for _, dep := range dependents[i] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		current = next
	}
	if placed != len(p.steps) {
		return nil, errors.Wrap(errors.Join(errors.ErrWiring, errors.ErrCycle),
			"step graph has a dependency cycle")
	}
	return layers, nil
}

// Steps returns the pipeline's steps in declaration order.
func (p *Pipeline) Steps() []Step { return p.steps }

// InputKeys returns the keys the pipeline expects callers to seed.
func (p *Pipeline) InputKeys() []string { return p.inputKeys }

// OutputKeys returns the keys the pipeline publishes as its result.
func (p *Pipeline) OutputKeys() []string { return p.outputKeys }
