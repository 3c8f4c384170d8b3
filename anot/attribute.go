package anot

import (
	"context"

	"github.com/clinpipe/clinpipe/ident"
)

// Attribute is a labeled value attached to an annotation (negation flag,
// normalized code, confidence score). Attributes carry their own identifier
// so that attribute additions are provenance-trackable events.
type Attribute struct {
	UID      string                 `json:"uid"`
	Label    string                 `json:"label"`
	Value    interface{}            `json:"value"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewAttribute creates an attribute with a fresh random identifier.
func NewAttribute(label string, value interface{}) Attribute {
	return Attribute{UID: ident.New(), Label: label, Value: value}
}

// NewAttributeIn creates an attribute whose identifier comes from the
// context's generator. Operations must use this (not NewAttribute) so
// deterministic pipeline re-runs reproduce attribute identifiers too.
func NewAttributeIn(ctx context.Context, label string, value interface{}) Attribute {
	return Attribute{UID: ident.FromContext(ctx).New(), Label: label, Value: value}
}

// Copy duplicates the attribute under a new random identifier, for attaching
// the same information to a different annotation.
func (a Attribute) Copy() Attribute {
	dup := a
	dup.UID = ident.New()
	return dup
}

// CopyIn duplicates the attribute under an identifier minted from the
// context's generator.
func (a Attribute) CopyIn(ctx context.Context) Attribute {
	dup := a
	dup.UID = ident.FromContext(ctx).New()
	return dup
}

// AttributeAddition is an operation output that attaches an attribute to an
// already existing annotation instead of creating a new one. It flows
// through the engine like any other output: provenance records the
// attribute's identifier as the output and the decorated annotation as its
// input, and commit applies it to the store append-only.
type AttributeAddition struct {
	TargetID string
	Attr     Attribute
}

// NewAttributeAddition pairs an attribute with the annotation it decorates.
func NewAttributeAddition(targetID string, attr Attribute) *AttributeAddition {
	return &AttributeAddition{TargetID: targetID, Attr: attr}
}

func (a *AttributeAddition) ID() string                       { return a.Attr.UID }
func (a *AttributeAddition) Label() string                    { return a.Attr.Label }
func (a *AttributeAddition) Attributes() []Attribute          { return nil }
func (a *AttributeAddition) Metadata() map[string]interface{} { return a.Attr.Metadata }

func (a *AttributeAddition) ReferencedIDs() []string { return []string{a.TargetID} }

func (a *AttributeAddition) appendAttribute(Attribute) {}
