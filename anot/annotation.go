// Package anot holds the annotation data model: typed, attributed units of
// derived information anchored to text spans or audio intervals, and the
// per-document store that owns them.
//
// Annotations are immutable once created, with one exception: attribute
// addition, which is append-only and goes through the store so writes stay
// serialized.
package anot

import (
	"sync"

	"github.com/clinpipe/clinpipe/ident"
	"github.com/clinpipe/clinpipe/span"
)

// Annotation is the common contract of segments, entities, relations and
// audio segments. References between annotations are identifier-based and
// resolved through the store, never structural.
type Annotation interface {
	ID() string
	Label() string
	// Attributes returns a snapshot copy of the attribute list.
	Attributes() []Attribute
	Metadata() map[string]interface{}
	// ReferencedIDs lists identifiers of other annotations this one points
	// at (relation source/target). Empty for span-anchored annotations.
	ReferencedIDs() []string

	appendAttribute(attr Attribute)
}

// Base carries the fields shared by every annotation kind.
type Base struct {
	uid   string
	label string
	meta  map[string]interface{}

	mu    sync.RWMutex
	attrs []Attribute
}

// Option configures an annotation at construction time.
type Option func(*Base)

// WithID sets an explicit identifier instead of generating one. Used by
// deterministic pipelines and by loaders importing pre-identified
// annotations.
func WithID(id string) Option {
	return func(b *Base) { b.uid = id }
}

// WithMetadata attaches a metadata mapping.
func WithMetadata(meta map[string]interface{}) Option {
	return func(b *Base) { b.meta = meta }
}

// WithAttributes attaches initial attributes.
func WithAttributes(attrs ...Attribute) Option {
	return func(b *Base) { b.attrs = append(b.attrs, attrs...) }
}

func newBase(label string, opts []Option) Base {
	b := Base{label: label}
	for _, opt := range opts {
		opt(&b)
	}
	if b.uid == "" {
		b.uid = ident.New()
	}
	return b
}

func (b *Base) ID() string    { return b.uid }
func (b *Base) Label() string { return b.label }

func (b *Base) Metadata() map[string]interface{} { return b.meta }

func (b *Base) Attributes() []Attribute {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Attribute, len(b.attrs))
	copy(out, b.attrs)
	return out
}

// AttributesByLabel returns every attribute carrying the given label. Keys
// are not unique: the same label may have been attached by different
// operations, distinguished by provenance.
func (b *Base) AttributesByLabel(label string) []Attribute {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Attribute
	for _, a := range b.attrs {
		if a.Label == label {
			out = append(out, a)
		}
	}
	return out
}

func (b *Base) ReferencedIDs() []string { return nil }

func (b *Base) appendAttribute(attr Attribute) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attrs = append(b.attrs, attr)
}

// Segment is a text-bound annotation: a label over one or more spans of a
// document, carrying the covered text.
type Segment struct {
	Base
	Spans []span.AnySpan
	Text  string
}

// NewSegment creates a text-bound annotation.
func NewSegment(label string, spans []span.AnySpan, text string, opts ...Option) *Segment {
	return &Segment{Base: newBase(label, opts), Spans: spans, Text: text}
}

// Snippet returns a portion of the document text around the segment,
// extended up to maxExtend characters.
func (s *Segment) Snippet(docText string, maxExtend int) string {
	normalized := span.Normalize(s.Spans)
	if len(normalized) == 0 {
		return ""
	}
	start := normalized[0].Start
	end := normalized[len(normalized)-1].End
	extStart := max(start-maxExtend/2, 0)
	remaining := maxExtend - (start - extStart)
	extEnd := min(end+remaining, len(docText))
	return docText[extStart:extEnd]
}

// Entity is a segment kind used for named clinical entities (problems,
// drugs, findings).
type Entity struct {
	Segment
}

// NewEntity creates an entity annotation.
func NewEntity(label string, spans []span.AnySpan, text string, opts ...Option) *Entity {
	return &Entity{Segment: Segment{Base: newBase(label, opts), Spans: spans, Text: text}}
}

// Relation links two annotations by identifier.
type Relation struct {
	Base
	SourceID string
	TargetID string
}

// NewRelation creates a relation between two existing annotations.
func NewRelation(label, sourceID, targetID string, opts ...Option) *Relation {
	return &Relation{Base: newBase(label, opts), SourceID: sourceID, TargetID: targetID}
}

func (r *Relation) ReferencedIDs() []string { return []string{r.SourceID, r.TargetID} }

// AudioSegment is an annotation anchored to a time interval of an audio
// document rather than a text span.
type AudioSegment struct {
	Base
	Span span.TimeSpan
}

// NewAudioSegment creates an audio-anchored annotation.
func NewAudioSegment(label string, ts span.TimeSpan, opts ...Option) *AudioSegment {
	return &AudioSegment{Base: newBase(label, opts), Span: ts}
}
