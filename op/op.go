// Package op defines the operation plugin contract: the fixed interface
// external NLP, ML and audio components implement to participate in
// pipelines. The engine never inspects an operation's internals; it routes
// data by the declared contract and records provenance around each call.
package op

import (
	"context"

	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/doc"
)

// Descriptor identifies an operation for provenance and configuration.
// Recorded verbatim in every provenance record the operation generates.
type Descriptor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`

	// EngineConstraint is an optional semver constraint on the engine
	// version the operation was built against (e.g. ">= 0.3").
	EngineConstraint string `json:"engine_constraint,omitempty"`

	Config map[string]interface{} `json:"config,omitempty"`
}

// Contract declares what an operation consumes and produces. The pipeline
// engine validates wiring against it at build time, before anything runs.
type Contract struct {
	// Inputs are the annotation labels the operation requires.
	Inputs []string
	// Outputs are the annotation labels the operation produces.
	Outputs []string
	// RewritesPayload marks operations that produce a rewritten document
	// rather than annotations.
	RewritesPayload bool
}

// AnyOperation is the capability every pluggable unit shares.
type AnyOperation interface {
	Descriptor() Descriptor
	Contract() Contract
}

// Operation processes one input annotation at a time. The engine batches
// over items and isolates per-item failures, so a failure on one item never
// aborts the rest of the batch (unless the step is fail-fast).
//
// Operations must not mutate their inputs: every output is a newly
// identified annotation even if its span or content is unchanged. This is
// what keeps provenance records truthful.
type Operation interface {
	AnyOperation
	Run(ctx context.Context, input anot.Annotation) ([]anot.Annotation, error)
}

// BatchOperation consumes a whole routed input list in one call, for
// operations whose outputs depend on several inputs at once (relation
// extractors, aggregating normalizers). A failure covers the whole batch.
type BatchOperation interface {
	AnyOperation
	RunBatch(ctx context.Context, inputs []anot.Annotation) ([]anot.Annotation, error)
}

// DocRewriter produces a rewritten document payload (normalization,
// de-identification). The returned document must be a new derived document;
// the engine records the document-to-document lineage link.
type DocRewriter interface {
	AnyOperation
	Rewrite(ctx context.Context, d *doc.Document) (*doc.Document, error)
}
