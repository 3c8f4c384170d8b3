// Package span models character ranges over a document's text.
//
// A simple Span points directly at the original text. A ModifiedSpan is the
// trace left behind by a text-rewriting operation (normalization,
// de-identification): it carries the length of the rewritten fragment plus
// the original spans that fragment replaced, so any offset in rewritten text
// can be mapped back to zero, one or several original ranges.
//
// An annotation's location is an ordered list of spans; the sum of their
// lengths always equals the length of the annotation's text.
package span

import (
	"sort"

	"github.com/clinpipe/clinpipe/errors"
)

// AnySpan is either a simple Span or a ModifiedSpan.
type AnySpan interface {
	// Length is the number of characters covered in the current
	// (possibly rewritten) text.
	Length() int
}

// Span is a contiguous [Start, End) range into the original document text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) Length() int { return s.End - s.Start }

// NewSpan validates offsets: non-negative, start strictly before end.
func NewSpan(start, end int) (Span, error) {
	if start < 0 || end <= start {
		return Span{}, errors.NewInvalidSpan("range [%d,%d) is empty or negative", start, end)
	}
	return Span{Start: start, End: end}, nil
}

// ModifiedSpan covers a fragment of rewritten text. ReplacedSpans are the
// original ranges the fragment stands for; empty means pure insertion with
// no originating range.
type ModifiedSpan struct {
	Len           int    `json:"length"`
	ReplacedSpans []Span `json:"replaced_spans"`
}

func (s ModifiedSpan) Length() int { return s.Len }

// Combine validates an ordered sequence of simple spans and merges
// contiguous ranges. Ranges must be non-overlapping and ordered by start
// offset; otherwise ErrInvalidSpan.
func Combine(spans []Span) ([]Span, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	out := make([]Span, 0, len(spans))
	for i, s := range spans {
		if s.Start < 0 || s.End <= s.Start {
			return nil, errors.NewInvalidSpan("range [%d,%d) is empty or negative", s.Start, s.End)
		}
		if i > 0 {
			prev := spans[i-1]
			if s.Start < prev.End {
				return nil, errors.NewInvalidSpan("range [%d,%d) overlaps or precedes [%d,%d)", s.Start, s.End, prev.Start, prev.End)
			}
		}
		if n := len(out); n > 0 && out[n-1].End == s.Start {
			out[n-1].End = s.End
		} else {
			out = append(out, s)
		}
	}
	return out, nil
}

// Length sums the lengths of a span sequence, discontinuous or not.
func Length(spans []AnySpan) int {
	total := 0
	for _, s := range spans {
		total += s.Length()
	}
	return total
}

// Lengths sums simple spans.
func Lengths(spans []Span) int {
	total := 0
	for _, s := range spans {
		total += s.Length()
	}
	return total
}

// Normalize resolves a mixed span sequence to simple spans over the
// original text. ModifiedSpans contribute their replaced spans; pure
// insertions contribute nothing. The result is sorted and merged.
func Normalize(spans []AnySpan) []Span {
	var flat []Span
	for _, s := range spans {
		switch v := s.(type) {
		case Span:
			flat = append(flat, v)
		case ModifiedSpan:
			flat = append(flat, v.ReplacedSpans...)
		}
	}
	return mergeSorted(flat)
}

// MapBack resolves an offset range inside the rewritten fragment covered by
// a ModifiedSpan to the original spans. Rewritten fragments are atomic: a
// sub-range maps to every replaced span (one-to-many when text was merged),
// or to nothing when the fragment was inserted without a source.
func MapBack(ms ModifiedSpan, start, end int) ([]Span, error) {
	if start < 0 || end < start || end > ms.Len {
		return nil, errors.NewInvalidSpan("offset range [%d,%d) outside rewritten fragment of length %d", start, end, ms.Len)
	}
	if len(ms.ReplacedSpans) == 0 {
		return nil, nil
	}
	out := make([]Span, len(ms.ReplacedSpans))
	copy(out, ms.ReplacedSpans)
	return mergeSorted(out), nil
}

func mergeSorted(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
		} else {
			out = append(out, s)
		}
	}
	return out
}
