// Package ident assigns the opaque identifiers carried by documents,
// annotations and attributes.
//
// Identifiers are the sole handle for references between objects: nothing in
// clinpipe ever refers to an annotation by position in a container. IDs are
// immutable, never reused, and collision-resistant across processes.
package ident

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/google/uuid"
)

// New returns a fresh random identifier (UUID v4).
func New() string {
	return uuid.NewString()
}

// Generator produces identifiers. The zero-value distinction matters for
// pipeline re-runs: a random generator gives fresh IDs every run, a
// deterministic one replays the same sequence so re-executing an unchanged
// pipeline yields byte-identical annotation stores.
type Generator interface {
	New() string
}

// Random is the default generator, backed by UUID v4.
type Random struct{}

func (Random) New() string { return uuid.NewString() }

// Deterministic generates a reproducible identifier sequence from a
// namespace string. Two generators built from the same namespace produce
// the same IDs in the same order.
type Deterministic struct {
	ns      uuid.UUID
	counter atomic.Uint64
}

// NewDeterministic seeds a deterministic generator with a namespace string,
// typically the pipeline identifier plus the document identifier.
func NewDeterministic(namespace string) *Deterministic {
	return &Deterministic{ns: uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace))}
}

func (g *Deterministic) New() string {
	n := g.counter.Add(1)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return uuid.NewSHA1(g.ns, buf[:]).String()
}

// Derive returns an identifier deterministically derived from an existing
// one. Used for auto-generated raw segments, whose ID must be stable given
// the same document ID.
func Derive(id string, suffix string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id+"/"+suffix)).String()
}
