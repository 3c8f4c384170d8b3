package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/doc"
	"github.com/clinpipe/clinpipe/errors"
)

// DocPipeline drives a pipeline over documents: it seeds each pipeline
// input key from document annotations, runs the step graph, and commits the
// produced annotations back to the document's store.
//
// Commit is all-or-nothing per document. Outputs stage during the run and
// reach the store only when the document's run completes; a fail-fast abort
// discards everything staged, so an aborted document's store is exactly as
// it was before the run.
type DocPipeline struct {
	Runner *Runner

	// LabelsByInputKey names, per pipeline input key, the annotation labels
	// whose annotations seed that key. Nil or a missing key seeds from the
	// document's raw segment.
	LabelsByInputKey map[string][]string

	// OnDerived, when set, receives every derived document spawned by a
	// payload-rewriting step. Called from concurrent document tasks; must be
	// safe for concurrent use.
	OnDerived func(*doc.Document)
}

// NewDocPipeline wraps a runner with default raw-segment input binding.
func NewDocPipeline(r *Runner) *DocPipeline {
	return &DocPipeline{Runner: r}
}

// Run processes documents concurrently, bounded by the configured document
// worker count. Documents share no mutable state except the provenance
// graph, so a failing document never affects its siblings. The returned
// error is non-nil if any document aborted; the report still covers every
// document.
func (dp *DocPipeline) Run(ctx context.Context, docs []*doc.Document) (*RunReport, error) {
	cfg := dp.Runner.cfg
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	if warning := checkMemoryPressure(cfg.DocWorkers * cfg.Workers); warning != "" {
		dp.Runner.log.Warnw("Memory pressure warning",
			"warning", warning,
			"doc_workers", cfg.DocWorkers,
			"workers", cfg.Workers)
	}

	report := &RunReport{
		StartedAt: time.Now(),
		Docs:      make([]DocReport, len(docs)),
	}
	errs := make([]error, len(docs))

	sem := make(chan struct{}, cfg.DocWorkers)
	var wg sync.WaitGroup
	for i, d := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, d *doc.Document) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Docs[i], errs[i] = dp.runDoc(ctx, d)
		}(i, d)
	}
	wg.Wait()

	report.Duration = time.Since(report.StartedAt)
	dp.Runner.log.Infow("Pipeline run complete",
		"docs", len(docs),
		"aborted", report.Aborted(),
		"succeeded_items", report.Succeeded(),
		"failed_items", report.Failed(),
		"duration", report.Duration)
	return report, errors.Join(errs...)
}

func (dp *DocPipeline) runDoc(ctx context.Context, d *doc.Document) (DocReport, error) {
	started := time.Now()
	rep := DocReport{DocID: d.ID()}

	res, err := dp.Runner.Execute(ctx, d, dp.seedInputs(d))
	if err != nil {
		rep.Aborted = true
		rep.Error = err.Error()
		rep.Duration = time.Since(started)
		dp.Runner.log.Warnw("Document run aborted, staged outputs discarded",
			"doc_id", d.ID(),
			"error", err)
		return rep, errors.Wrapf(err, "document %s", d.ID())
	}

	rep.Steps = res.Steps
	for _, derived := range res.Derived {
		rep.DerivedDocIDs = append(rep.DerivedDocIDs, derived.ID())
		if dp.OnDerived != nil {
			dp.OnDerived(derived)
		}
	}
	if err := dp.commit(d, res); err != nil {
		rep.Error = err.Error()
		rep.Duration = time.Since(started)
		return rep, errors.Wrapf(err, "document %s", d.ID())
	}
	rep.Duration = time.Since(started)
	return rep, nil
}

// seedInputs gathers the annotations feeding each pipeline input key.
func (dp *DocPipeline) seedInputs(d *doc.Document) map[string][]anot.Annotation {
	inputs := make(map[string][]anot.Annotation, len(dp.Runner.pipe.inputKeys))
	for _, key := range dp.Runner.pipe.inputKeys {
		labels := dp.LabelsByInputKey[key]
		if len(labels) == 0 {
			inputs[key] = []anot.Annotation{d.RawSegment()}
			continue
		}
		var anns []anot.Annotation
		for _, label := range labels {
			anns = append(anns, d.ByLabel(label)...)
		}
		inputs[key] = anns
	}
	return inputs
}

// commit registers every produced annotation in the document's store.
// Derived documents keep their own stores; their raw segments are routing
// artifacts and are not added to the parent. Attribute additions apply
// last, so they can target annotations committed by any step of the run.
func (dp *DocPipeline) commit(d *doc.Document, res *DocResult) error {
	var additions []*anot.AttributeAddition
	for _, key := range orderedKeys(res.Outputs) {
		for _, ann := range res.Outputs[key] {
			if add, ok := ann.(*anot.AttributeAddition); ok {
				additions = append(additions, add)
				continue
			}
			if ann.Label() == doc.RawTextLabel {
				continue
			}
			if err := d.Add(ann); err != nil {
				return errors.Wrapf(err, "failed to commit output of key %q", key)
			}
		}
	}
	for _, add := range additions {
		if err := d.Anns().AddAttribute(add.TargetID, add.Attr); err != nil {
			return errors.Wrapf(err, "failed to attach attribute %q to %s", add.Attr.Label, add.TargetID)
		}
	}
	return nil
}

func orderedKeys(m map[string][]anot.Annotation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
