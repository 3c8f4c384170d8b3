// Package doc defines documents: a frozen text or audio payload, its
// annotation store, and optional metadata.
//
// Payloads never mutate. An operation that rewrites text produces a new
// derived document linked to its source through provenance, so every span
// downstream stays valid against a single frozen payload.
package doc

import (
	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/ident"
	"github.com/clinpipe/clinpipe/span"
)

// RawTextLabel is the reserved label of the auto-generated segment covering
// the full unprocessed document text.
const RawTextLabel = "RAW_TEXT"

// Document holds a frozen text payload and its annotations.
type Document struct {
	uid  string
	text string
	anns *anot.Store
	meta map[string]interface{}

	// auto-generated raw segment, injected into lookups but never stored
	// with other annotations
	rawSeg *anot.Segment

	// set only on derived documents
	parentID string
	mapping  []span.AnySpan
}

type options struct {
	uid  string
	meta map[string]interface{}
}

// Option configures a document at construction time.
type Option func(*options)

// WithID sets an explicit document identifier; loaders importing documents
// with pre-assigned IDs and deterministic pipelines use this.
func WithID(id string) Option {
	return func(o *options) { o.uid = id }
}

// WithMetadata attaches a metadata mapping.
func WithMetadata(meta map[string]interface{}) Option {
	return func(o *options) { o.meta = meta }
}

// New creates a document over a frozen text payload. The raw segment's
// identifier is derived from the document identifier, so it is stable for
// the same document across runs.
func New(text string, opts ...Option) *Document {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.uid == "" {
		o.uid = ident.New()
	}
	d := &Document{
		uid:  o.uid,
		text: text,
		anns: anot.NewStore(),
		meta: o.meta,
	}
	d.rawSeg = anot.NewSegment(
		RawTextLabel,
		[]span.AnySpan{span.Span{Start: 0, End: len(text)}},
		text,
		anot.WithID(ident.Derive(o.uid, "raw")),
	)
	return d
}

// NewDerived creates the document produced by a text-rewriting operation.
// The mapping is the span list of the new text over the parent's original
// text; its total length must equal the new text's length.
func NewDerived(parent *Document, text string, mapping []span.AnySpan, opts ...Option) (*Document, error) {
	if got := span.Length(mapping); got != len(text) {
		return nil, errors.NewInvalidSpan("mapping covers %d characters but text has %d", got, len(text))
	}
	d := New(text, opts...)
	d.parentID = parent.ID()
	d.mapping = mapping
	return d, nil
}

func (d *Document) ID() string   { return d.uid }
func (d *Document) Text() string { return d.text }

// Anns exposes the annotation store for filtering and attribute addition.
func (d *Document) Anns() *anot.Store { return d.anns }

func (d *Document) Metadata() map[string]interface{} { return d.meta }

// RawSegment returns the auto-generated segment spanning the whole text.
func (d *Document) RawSegment() *anot.Segment { return d.rawSeg }

// ParentID returns the source document's identifier for derived documents,
// empty otherwise.
func (d *Document) ParentID() string { return d.parentID }

// Mapping returns the derived document's span list over its parent's text.
func (d *Document) Mapping() []span.AnySpan { return d.mapping }

// IsDerived reports whether this document was produced by rewriting
// another document's payload.
func (d *Document) IsDerived() bool { return d.parentID != "" }

// Add registers an annotation on the document. The raw segment's label is
// reserved.
func (d *Document) Add(ann anot.Annotation) error {
	if ann.Label() == RawTextLabel {
		return errors.Newf("cannot add annotation with reserved label %s", RawTextLabel)
	}
	return d.anns.Add(ann)
}

// Get retrieves an annotation by identifier, injecting the raw segment.
func (d *Document) Get(id string) (anot.Annotation, error) {
	if id == d.rawSeg.ID() {
		return d.rawSeg, nil
	}
	return d.anns.Get(id)
}

// ByLabel collects annotations with the given label, injecting the raw
// segment when asked for it.
func (d *Document) ByLabel(label string) []anot.Annotation {
	if label == RawTextLabel {
		return []anot.Annotation{d.rawSeg}
	}
	return d.anns.ByLabel(label)
}
