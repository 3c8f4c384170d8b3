package span

import (
	"strings"

	"github.com/clinpipe/clinpipe/errors"
)

// Text-rewriting helpers. All functions are pure: they take an annotation's
// text and its span list (Length(spans) == len(text)) plus ranges expressed
// in coordinates of that text, and return new text with a new span list
// carrying ModifiedSpan lineage. Inputs are never mutated.

// Replace substitutes each range with the corresponding replacement string.
// Ranges must be ordered and non-overlapping.
func Replace(text string, spans []AnySpan, ranges []Span, replacements []string) (string, []AnySpan, error) {
	if len(ranges) != len(replacements) {
		return "", nil, errors.Newf("got %d ranges but %d replacements", len(ranges), len(replacements))
	}
	if err := validateRanges(len(text), ranges); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var out []AnySpan
	cursor := 0
	for i, r := range ranges {
		if r.Start > cursor {
			b.WriteString(text[cursor:r.Start])
			out = append(out, subSpans(spans, cursor, r.Start)...)
		}
		repl := replacements[i]
		b.WriteString(repl)
		if len(repl) > 0 {
			out = append(out, ModifiedSpan{
				Len:           len(repl),
				ReplacedSpans: Normalize(subSpans(spans, r.Start, r.End)),
			})
		}
		cursor = r.End
	}
	if cursor < len(text) {
		b.WriteString(text[cursor:])
		out = append(out, subSpans(spans, cursor, len(text))...)
	}
	return b.String(), out, nil
}

// Remove deletes the given ranges. Unlike Replace with empty strings, the
// removed ranges leave no trace in the span list.
func Remove(text string, spans []AnySpan, ranges []Span) (string, []AnySpan, error) {
	if err := validateRanges(len(text), ranges); err != nil {
		return "", nil, err
	}
	var b strings.Builder
	var out []AnySpan
	cursor := 0
	for _, r := range ranges {
		if r.Start > cursor {
			b.WriteString(text[cursor:r.Start])
			out = append(out, subSpans(spans, cursor, r.Start)...)
		}
		cursor = r.End
	}
	if cursor < len(text) {
		b.WriteString(text[cursor:])
		out = append(out, subSpans(spans, cursor, len(text))...)
	}
	return b.String(), out, nil
}

// Extract keeps only the given ranges, concatenated in order.
func Extract(text string, spans []AnySpan, ranges []Span) (string, []AnySpan, error) {
	if err := validateRanges(len(text), ranges); err != nil {
		return "", nil, err
	}
	var b strings.Builder
	var out []AnySpan
	for _, r := range ranges {
		b.WriteString(text[r.Start:r.End])
		out = append(out, subSpans(spans, r.Start, r.End)...)
	}
	return b.String(), out, nil
}

// Insert places each insertion string at the corresponding position.
// Positions must be increasing. Inserted text maps back to nothing.
func Insert(text string, spans []AnySpan, positions []int, insertions []string) (string, []AnySpan, error) {
	if len(positions) != len(insertions) {
		return "", nil, errors.Newf("got %d positions but %d insertions", len(positions), len(insertions))
	}
	var b strings.Builder
	var out []AnySpan
	cursor := 0
	for i, pos := range positions {
		if pos < cursor || pos > len(text) {
			return "", nil, errors.NewInvalidSpan("insertion position %d out of order or out of bounds", pos)
		}
		if pos > cursor {
			b.WriteString(text[cursor:pos])
			out = append(out, subSpans(spans, cursor, pos)...)
		}
		ins := insertions[i]
		if len(ins) > 0 {
			b.WriteString(ins)
			out = append(out, ModifiedSpan{Len: len(ins)})
		}
		cursor = pos
	}
	if cursor < len(text) {
		b.WriteString(text[cursor:])
		out = append(out, subSpans(spans, cursor, len(text))...)
	}
	return b.String(), out, nil
}

// Move extracts a range and reinserts its text at a destination expressed in
// the coordinates of the text after removal.
func Move(text string, spans []AnySpan, r Span, dest int) (string, []AnySpan, error) {
	fragment, fragmentSpans, err := Extract(text, spans, []Span{r})
	if err != nil {
		return "", nil, err
	}
	removed, removedSpans, err := Remove(text, spans, []Span{r})
	if err != nil {
		return "", nil, err
	}
	if dest < 0 || dest > len(removed) {
		return "", nil, errors.NewInvalidSpan("move destination %d out of bounds", dest)
	}
	var b strings.Builder
	b.WriteString(removed[:dest])
	b.WriteString(fragment)
	b.WriteString(removed[dest:])

	var out []AnySpan
	out = append(out, subSpans(removedSpans, 0, dest)...)
	out = append(out, fragmentSpans...)
	out = append(out, subSpans(removedSpans, dest, len(removed))...)
	return b.String(), out, nil
}

// subSpans returns the portion of a span list covering text offsets
// [start, end), splitting boundary spans. Splitting a ModifiedSpan keeps the
// full replaced set on both halves: rewritten fragments are atomic.
func subSpans(spans []AnySpan, start, end int) []AnySpan {
	var out []AnySpan
	offset := 0
	for _, s := range spans {
		sLen := s.Length()
		sStart, sEnd := offset, offset+sLen
		offset = sEnd
		if sEnd <= start {
			continue
		}
		if sStart >= end {
			break
		}
		from := max(start-sStart, 0)
		to := min(end-sStart, sLen)
		if from == 0 && to == sLen {
			out = append(out, s)
			continue
		}
		switch v := s.(type) {
		case Span:
			out = append(out, Span{Start: v.Start + from, End: v.Start + to})
		case ModifiedSpan:
			out = append(out, ModifiedSpan{Len: to - from, ReplacedSpans: v.ReplacedSpans})
		}
	}
	return out
}

func validateRanges(textLen int, ranges []Span) error {
	prevEnd := 0
	for _, r := range ranges {
		if r.Start < 0 || r.End < r.Start || r.End > textLen {
			return errors.NewInvalidSpan("range [%d,%d) out of bounds for text of length %d", r.Start, r.End, textLen)
		}
		if r.Start < prevEnd {
			return errors.NewInvalidSpan("range [%d,%d) overlaps previous range", r.Start, r.End)
		}
		prevEnd = r.End
	}
	return nil
}
