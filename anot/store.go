package anot

import (
	"iter"
	"slices"
	"sort"
	"sync"

	"github.com/clinpipe/clinpipe/errors"
)

// Store holds the annotations of one document, keyed by identifier.
// Reads may run concurrently during pipeline execution; writes are
// serialized. Iteration for exporters follows insertion order.
type Store struct {
	mu    sync.RWMutex
	anns  map[string]Annotation
	order []string
}

// NewStore creates an empty annotation store.
func NewStore() *Store {
	return &Store{anns: make(map[string]Annotation)}
}

// Add registers an annotation. Fails with ErrDuplicateID if the identifier
// is already present: identifiers are never reused, even across operations.
func (s *Store) Add(ann Annotation) error {
	if ann.ID() == "" {
		return errors.New("annotation has no identifier")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.anns[ann.ID()]; exists {
		return errors.Wrapf(errors.ErrDuplicateID, "annotation %s", ann.ID())
	}
	s.anns[ann.ID()] = ann
	s.order = append(s.order, ann.ID())
	return nil
}

// Get retrieves an annotation by identifier, ErrNotFound if absent.
func (s *Store) Get(id string) (Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ann, ok := s.anns[id]
	if !ok {
		return nil, errors.NewNotFound("annotation %s", id)
	}
	return ann, nil
}

// Has reports whether an identifier is present.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.anns[id]
	return ok
}

// Len returns the number of annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.anns)
}

// All returns every annotation in insertion order.
func (s *Store) All() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Annotation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.anns[id])
	}
	return out
}

// Filter returns a lazy sequence of annotations matching the predicate, in
// insertion order. The sequence is restartable: each iteration re-evaluates
// the predicate against the store's current state rather than a snapshot.
func (s *Store) Filter(pred func(Annotation) bool) iter.Seq[Annotation] {
	return func(yield func(Annotation) bool) {
		s.mu.RLock()
		order := slices.Clone(s.order)
		s.mu.RUnlock()
		for _, id := range order {
			s.mu.RLock()
			ann := s.anns[id]
			s.mu.RUnlock()
			if ann == nil || !pred(ann) {
				continue
			}
			if !yield(ann) {
				return
			}
		}
	}
}

// ByLabel collects annotations with the given label, in insertion order.
func (s *Store) ByLabel(label string) []Annotation {
	var out []Annotation
	for ann := range s.Filter(func(a Annotation) bool { return a.Label() == label }) {
		out = append(out, ann)
	}
	return out
}

// Labels returns the distinct labels present, sorted.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, ann := range s.anns {
		seen[ann.Label()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// AddAttribute appends an attribute to an existing annotation. Existing
// attributes with the same label are kept: provenance, not overwriting,
// distinguishes them. Fails with ErrNotFound if the annotation is absent.
func (s *Store) AddAttribute(id string, attr Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ann, ok := s.anns[id]
	if !ok {
		return errors.NewNotFound("annotation %s", id)
	}
	ann.appendAttribute(attr)
	return nil
}
