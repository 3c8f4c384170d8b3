// Package prov records the lineage of every derived annotation and
// document: which operation produced it, from which inputs. The graph is a
// DAG usable for audit ("why does this entity carry a negation flag?") and
// for incremental reprocessing ("which annotations must be regenerated if
// this operation changes?").
//
// The graph is the only resource shared across concurrent document tasks.
// It is append-only: records are never updated or removed, so a single
// mutex per append is enough and no cross-document conflict can occur.
package prov

import (
	"sort"
	"sync"

	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/op"
)

// Record states that an operation produced one output from an ordered
// sequence of inputs. Identifiers may name annotations or documents.
type Record struct {
	OutputID string        `json:"output_id"`
	Op       op.Descriptor `json:"op"`
	InputIDs []string      `json:"input_ids"`
}

// Graph is the provenance DAG. Nodes are identifiers; edges point from
// inputs to the outputs they produced. Identifiers with no generating
// record are source nodes (initial corpus load).
type Graph struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
	outputs map[string][]string // input id -> output ids produced from it
}

// NewGraph creates an empty provenance graph.
func NewGraph() *Graph {
	return &Graph{
		records: make(map[string]*Record),
		outputs: make(map[string][]string),
	}
}

// Add records that desc produced outputID from inputIDs.
//
// Integrity rules, both fatal when violated:
//   - single-writer: an output has exactly one generating record, so a
//     second record for the same outputID fails with ErrDuplicateID;
//   - acyclicity: an output can never be, transitively, its own input. The
//     topological execution of pipelines should make this unreachable, but
//     operations are arbitrary plugins, so it is enforced here with ErrCycle.
func (g *Graph) Add(outputID string, desc op.Descriptor, inputIDs []string) error {
	if outputID == "" {
		return errors.New("provenance record has no output identifier")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.records[outputID]; exists {
		return errors.Wrapf(errors.ErrDuplicateID, "output %s already has a generating record", outputID)
	}
	for _, in := range inputIDs {
		if in == outputID || g.reachableLocked(in, outputID) {
			return errors.Wrapf(errors.ErrCycle, "output %s is a transitive input of itself", outputID)
		}
	}

	rec := &Record{OutputID: outputID, Op: desc, InputIDs: append([]string(nil), inputIDs...)}
	g.records[outputID] = rec
	g.order = append(g.order, outputID)
	for _, in := range inputIDs {
		g.outputs[in] = append(g.outputs[in], outputID)
	}
	return nil
}

// reachableLocked reports whether target is an ancestor of id.
func (g *Graph) reachableLocked(id, target string) bool {
	rec, ok := g.records[id]
	if !ok {
		return false
	}
	for _, in := range rec.InputIDs {
		if in == target || g.reachableLocked(in, target) {
			return true
		}
	}
	return false
}

// Ancestors returns the full upstream closure of an identifier, sorted.
// The result never contains the identifier itself.
func (g *Graph) Ancestors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[string]struct{})
	g.collectAncestorsLocked(id, seen)
	return sortedKeys(seen)
}

func (g *Graph) collectAncestorsLocked(id string, seen map[string]struct{}) {
	rec, ok := g.records[id]
	if !ok {
		return
	}
	for _, in := range rec.InputIDs {
		if _, done := seen[in]; done {
			continue
		}
		seen[in] = struct{}{}
		g.collectAncestorsLocked(in, seen)
	}
}

// Downstream returns every identifier transitively produced from id: the
// set that must be invalidated and regenerated when id (or the operation
// that feeds it) changes. Enables partial re-execution instead of full
// reprocessing.
func (g *Graph) Downstream(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[string]struct{})
	g.collectDownstreamLocked(id, seen)
	return sortedKeys(seen)
}

func (g *Graph) collectDownstreamLocked(id string, seen map[string]struct{}) {
	for _, out := range g.outputs[id] {
		if _, done := seen[out]; done {
			continue
		}
		seen[out] = struct{}{}
		g.collectDownstreamLocked(out, seen)
	}
}

// OperationOf returns the descriptor of the operation that generated id.
// Source nodes have no generating operation: ErrNotFound.
func (g *Graph) OperationOf(id string) (op.Descriptor, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.records[id]
	if !ok {
		return op.Descriptor{}, errors.NewNotFound("no generating record for %s", id)
	}
	return rec.Op, nil
}

// InputsOf returns the ordered inputs consumed to produce id, ErrNotFound
// for source nodes.
func (g *Graph) InputsOf(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.records[id]
	if !ok {
		return nil, errors.NewNotFound("no generating record for %s", id)
	}
	return append([]string(nil), rec.InputIDs...), nil
}

// IsSource reports whether id appears in the graph only as an input, i.e.
// has no generating record. Source nodes are the initial corpus material.
func (g *Graph) IsSource(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, generated := g.records[id]
	return !generated
}

// Records returns all records in insertion order, for export and
// persistence.
func (g *Graph) Records() []Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Record, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.records[id])
	}
	return out
}

// Len returns the number of records.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
