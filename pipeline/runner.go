package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/doc"
	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/ident"
	"github.com/clinpipe/clinpipe/logger"
	"github.com/clinpipe/clinpipe/op"
	"github.com/clinpipe/clinpipe/prov"
)

// RunConfig tunes pipeline execution.
type RunConfig struct {
	// Workers bounds concurrent step execution within one document's run.
	Workers int `json:"workers"`
	// DocWorkers bounds how many documents run concurrently.
	DocWorkers int `json:"doc_workers"`
	// OpTimeout bounds a single operation invocation. A timed-out
	// invocation is abandoned and the item marked failed; zero disables.
	OpTimeout time.Duration `json:"op_timeout"`
	// RunTimeout bounds the whole run across all documents; zero disables.
	RunTimeout time.Duration `json:"run_timeout"`
	// RateLimit caps operation invocations per second; zero disables.
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`
	// DeterministicIDs makes re-runs over unchanged documents produce
	// identical identifiers: each step gets a generator seeded from
	// IDNamespace, the document identifier and the step's output key, so
	// concurrent steps never interleave on a shared counter.
	DeterministicIDs bool   `json:"deterministic_ids"`
	IDNamespace      string `json:"id_namespace"`
}

// DefaultRunConfig returns sensible defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Workers:     4,
		DocWorkers:  2,
		OpTimeout:   time.Minute,
		RunTimeout:  30 * time.Minute,
		RateBurst:   1,
		IDNamespace: "clinpipe",
	}
}

// Runner executes a validated pipeline, staging outputs per document and
// appending to a shared provenance graph.
type Runner struct {
	pipe    *Pipeline
	graph   *prov.Graph
	cfg     RunConfig
	log     *zap.SugaredLogger
	limiter *rate.Limiter
}

// NewRunner binds a pipeline to a provenance graph. The graph may be shared
// with other runners; it is the only cross-document shared state.
func NewRunner(pipe *Pipeline, graph *prov.Graph, cfg RunConfig) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.DocWorkers < 1 {
		cfg.DocWorkers = 1
	}
	r := &Runner{
		pipe:  pipe,
		graph: graph,
		cfg:   cfg,
		log:   logger.Logger.Named("pipeline"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return r
}

// Graph returns the provenance graph the runner appends to.
func (r *Runner) Graph() *prov.Graph { return r.graph }

// Pipeline returns the pipeline being executed.
func (r *Runner) Pipeline() *Pipeline { return r.pipe }

// DocResult holds one document's staged outputs. Outputs are only handed
// back on success: an aborted run discards everything it staged.
type DocResult struct {
	// Outputs holds every produced key's annotations, not just the
	// pipeline-level output keys, so callers can register all step outputs.
	Outputs map[string][]anot.Annotation
	// Derived holds documents spawned by payload-rewriting steps.
	Derived []*doc.Document
	Steps   []StepReport
}

// selfProvenancing marks composite operations (nested pipelines) that append
// their own provenance records; the engine must not record on top of them.
type selfProvenancing interface {
	RecordsOwnProvenance() bool
}

// Execute runs the pipeline once over seeded inputs. d provides the raw
// payload context and may be nil for annotation-only runs, in which case
// document-rewriting steps fail. Outputs stage locally and are returned only
// if no fail-fast step aborted: an abort returns ErrAborted and discards all
// staged outputs, leaving the caller's stores untouched.
func (r *Runner) Execute(ctx context.Context, d *doc.Document, inputs map[string][]anot.Annotation) (*DocResult, error) {
	// With deterministic IDs, each step gets its own generator seeded by
	// its output key. Steps in the same layer run on concurrent goroutines;
	// a shared counter would hand out IDs in scheduling order.
	detNS := ""
	if r.cfg.DeterministicIDs {
		detNS = r.cfg.IDNamespace
		if d != nil {
			detNS += "/" + d.ID()
		}
	}

	staged := make(map[string][]anot.Annotation, len(inputs))
	for k, anns := range inputs {
		staged[k] = append([]anot.Annotation(nil), anns...)
	}

	// Provenance references the document, not its raw segment view.
	sourceDoc := make(map[string]string)
	if d != nil {
		sourceDoc[d.RawSegment().ID()] = d.ID()
	}

	// staged routes data between steps (inputs included); Outputs carries
	// only what the steps produced, so callers can commit it without
	// re-adding the seeded inputs.
	result := &DocResult{Outputs: make(map[string][]anot.Annotation)}
	for _, layer := range r.pipe.layers {
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(errors.ErrAborted, err)
		}

		type stepRun struct {
			step   Step
			inputs []anot.Annotation
			out    stepOutcome
		}
		runs := make([]*stepRun, 0, len(layer))
		for _, idx := range layer {
			step := r.pipe.steps[idx]
			var gathered []anot.Annotation
			for _, k := range step.InputKeys {
				gathered = append(gathered, staged[k]...)
			}
			runs = append(runs, &stepRun{step: step, inputs: gathered})
		}

		sem := make(chan struct{}, r.cfg.Workers)
		var wg sync.WaitGroup
		for _, run := range runs {
			wg.Add(1)
			sem <- struct{}{}
			go func(run *stepRun) {
				defer wg.Done()
				defer func() { <-sem }()
				run.out = r.runStep(ctx, run.step, d, run.inputs, sourceDoc, detNS)
			}(run)
		}
		wg.Wait()

		// Merge sequentially so downstream layers see complete step output.
		for _, run := range runs {
			result.Steps = append(result.Steps, run.out.report)
			if run.out.abort != nil {
				return nil, run.out.abort
			}
			key := run.step.OutputKeys[0]
			staged[key] = append(staged[key], run.out.outputs...)
			result.Outputs[key] = append(result.Outputs[key], run.out.outputs...)
			for _, derived := range run.out.derived {
				result.Derived = append(result.Derived, derived)
				sourceDoc[derived.RawSegment().ID()] = derived.ID()
			}
		}
	}
	return result, nil
}

type stepOutcome struct {
	report  StepReport
	outputs []anot.Annotation
	derived []*doc.Document
	abort   error
}

func (r *Runner) runStep(ctx context.Context, step Step, d *doc.Document, inputs []anot.Annotation, sourceDoc map[string]string, detNS string) stepOutcome {
	desc := step.Operation.Descriptor()
	out := stepOutcome{report: StepReport{Operation: desc.Name}}

	if detNS != "" {
		ctx = ident.WithGenerator(ctx, ident.NewDeterministic(detNS+"/"+step.OutputKeys[0]))
	}

	recordProv := true
	if sp, ok := step.Operation.(selfProvenancing); ok && sp.RecordsOwnProvenance() {
		recordProv = false
	}

	provID := func(a anot.Annotation) string {
		if docID, ok := sourceDoc[a.ID()]; ok {
			return docID
		}
		return a.ID()
	}

	fail := func(itemID string, cause error) bool {
		opErr := errors.NewOperationError(itemID, desc.Name, cause)
		out.report.Failed++
		out.report.Failures = append(out.report.Failures, ItemFailure{ItemID: itemID, Error: opErr.Error()})
		r.log.Warnw("Operation item failed",
			"operation", desc.Name,
			"item_id", itemID,
			"error", cause)
		if step.FailFast {
			out.abort = errors.Join(errors.ErrAborted, opErr)
			return true
		}
		return false
	}

	record := func(produced []anot.Annotation, inputIDs []string) error {
		if !recordProv {
			return nil
		}
		for _, p := range produced {
			ids := inputIDs
			// Attribute additions decorate an existing annotation: the
			// attribute's own identifier is the output, the decorated
			// annotation its input.
			if add, ok := p.(*anot.AttributeAddition); ok {
				ids = []string{add.TargetID}
			}
			if err := r.graph.Add(p.ID(), desc, ids); err != nil {
				return err
			}
		}
		return nil
	}

	switch operation := step.Operation.(type) {
	case op.Operation:
		for _, item := range inputs {
			if err := r.wait(ctx); err != nil {
				out.abort = errors.Join(errors.ErrAborted, err)
				return out
			}
			produced, err := r.invokeItem(ctx, operation, item)
			if err != nil {
				if fail(item.ID(), err) {
					return out
				}
				continue
			}
			if err := record(produced, []string{provID(item)}); err != nil {
				out.abort = err
				return out
			}
			out.report.Succeeded++
			out.outputs = append(out.outputs, produced...)
		}

	case op.BatchOperation:
		if err := r.wait(ctx); err != nil {
			out.abort = errors.Join(errors.ErrAborted, err)
			return out
		}
		produced, err := r.invokeBatch(ctx, operation, inputs)
		if err != nil {
			fail("", err)
			out.report.Failed = len(inputs)
			return out
		}
		inputIDs := make([]string, len(inputs))
		for i, item := range inputs {
			inputIDs[i] = provID(item)
		}
		if err := record(produced, inputIDs); err != nil {
			out.abort = err
			return out
		}
		out.report.Succeeded = len(inputs)
		out.outputs = produced

	case op.DocRewriter:
		if d == nil {
			out.abort = errors.Wrapf(errors.ErrWiring,
				"step %s rewrites the document payload but the run has no document", desc.Name)
			return out
		}
		if err := r.wait(ctx); err != nil {
			out.abort = errors.Join(errors.ErrAborted, err)
			return out
		}
		derived, err := r.invokeRewrite(ctx, operation, d)
		if err != nil {
			fail(d.ID(), err)
			return out
		}
		if recordProv {
			if err := r.graph.Add(derived.ID(), desc, []string{d.ID()}); err != nil {
				out.abort = err
				return out
			}
		}
		out.report.Succeeded = 1
		out.derived = append(out.derived, derived)
		out.outputs = []anot.Annotation{derived.RawSegment()}
	}
	return out
}

// wait applies the invocation rate limit.
func (r *Runner) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// invokeItem runs one item through an operation with the per-operation
// timeout. If the operation ignores cancellation, the engine abandons the
// invocation rather than blocking: the goroutine's eventual result is
// dropped and the item reports the context error.
func (r *Runner) invokeItem(ctx context.Context, operation op.Operation, item anot.Annotation) ([]anot.Annotation, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	type result struct {
		outs []anot.Annotation
		err  error
	}
	done := make(chan result, 1)
	go func() {
		outs, err := operation.Run(opCtx, item)
		done <- result{outs, err}
	}()
	select {
	case res := <-done:
		return res.outs, res.err
	case <-opCtx.Done():
		return nil, opCtx.Err()
	}
}

func (r *Runner) invokeBatch(ctx context.Context, operation op.BatchOperation, inputs []anot.Annotation) ([]anot.Annotation, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	type result struct {
		outs []anot.Annotation
		err  error
	}
	done := make(chan result, 1)
	go func() {
		outs, err := operation.RunBatch(opCtx, inputs)
		done <- result{outs, err}
	}()
	select {
	case res := <-done:
		return res.outs, res.err
	case <-opCtx.Done():
		return nil, opCtx.Err()
	}
}

func (r *Runner) invokeRewrite(ctx context.Context, operation op.DocRewriter, d *doc.Document) (*doc.Document, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	type result struct {
		derived *doc.Document
		err     error
	}
	done := make(chan result, 1)
	go func() {
		derived, err := operation.Rewrite(opCtx, d)
		done <- result{derived, err}
	}()
	select {
	case res := <-done:
		return res.derived, res.err
	case <-opCtx.Done():
		return nil, opCtx.Err()
	}
}

func (r *Runner) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.OpTimeout > 0 {
		return context.WithTimeout(ctx, r.cfg.OpTimeout)
	}
	return context.WithCancel(ctx)
}
