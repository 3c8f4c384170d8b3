package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinpipe/clinpipe/errors"
)

// fullSpans returns the identity span list for a text: one simple span
// covering the whole original range.
func fullSpans(text string) []AnySpan {
	return []AnySpan{Span{Start: 0, End: len(text)}}
}

func TestReplaceKeepsLineage(t *testing.T) {
	text := "Patient denies fever."
	newText, newSpans, err := Replace(text, fullSpans(text), []Span{{15, 20}}, []string{"pyrexia"})
	require.NoError(t, err)

	assert.Equal(t, "Patient denies pyrexia.", newText)
	assert.Equal(t, len(newText), Length(newSpans))

	require.Len(t, newSpans, 3)
	assert.Equal(t, Span{0, 15}, newSpans[0])
	ms, ok := newSpans[1].(ModifiedSpan)
	require.True(t, ok)
	assert.Equal(t, len("pyrexia"), ms.Len)
	assert.Equal(t, []Span{{15, 20}}, ms.ReplacedSpans)
	assert.Equal(t, Span{20, 21}, newSpans[2])

	// the rewritten fragment maps back to the original range
	back, err := MapBack(ms, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []Span{{15, 20}}, back)
}

func TestReplaceMultipleRanges(t *testing.T) {
	text := "aaa bbb ccc"
	newText, newSpans, err := Replace(text, fullSpans(text),
		[]Span{{0, 3}, {8, 11}}, []string{"X", "YY"})
	require.NoError(t, err)
	assert.Equal(t, "X bbb YY", newText)
	assert.Equal(t, len(newText), Length(newSpans))
	// contiguous original ranges merge back into one
	assert.Equal(t, []Span{{0, 11}}, Normalize(newSpans))
}

func TestReplaceRejectsOverlappingRanges(t *testing.T) {
	text := "abcdef"
	_, _, err := Replace(text, fullSpans(text), []Span{{0, 3}, {2, 5}}, []string{"x", "y"})
	assert.True(t, errors.Is(err, errors.ErrInvalidSpan))
}

func TestRemoveLeavesNoTrace(t *testing.T) {
	text := "John Smith, 54yo"
	newText, newSpans, err := Remove(text, fullSpans(text), []Span{{0, 12}})
	require.NoError(t, err)
	assert.Equal(t, "54yo", newText)
	assert.Equal(t, []Span{{12, 16}}, Normalize(newSpans))
}

func TestExtract(t *testing.T) {
	text := "one two three"
	newText, newSpans, err := Extract(text, fullSpans(text), []Span{{0, 3}, {8, 13}})
	require.NoError(t, err)
	assert.Equal(t, "onethree", newText)
	assert.Equal(t, len(newText), Length(newSpans))
	assert.Equal(t, []Span{{0, 3}, {8, 13}}, Normalize(newSpans))
}

func TestInsertMapsBackToNothing(t *testing.T) {
	text := "fever"
	newText, newSpans, err := Insert(text, fullSpans(text), []int{0}, []string{"no "})
	require.NoError(t, err)
	assert.Equal(t, "no fever", newText)
	assert.Equal(t, len(newText), Length(newSpans))

	ms, ok := newSpans[0].(ModifiedSpan)
	require.True(t, ok)
	assert.Empty(t, ms.ReplacedSpans)
	assert.Equal(t, []Span{{0, 5}}, Normalize(newSpans))
}

func TestMove(t *testing.T) {
	text := "beta alpha "
	spans := fullSpans(text)
	newText, newSpans, err := Move(text, spans, Span{5, 11}, 0)
	require.NoError(t, err)
	assert.Equal(t, "alpha beta ", newText)
	assert.Equal(t, len(newText), Length(newSpans))
	// moved text still points at its original range
	assert.Equal(t, []Span{{0, len(text)}}, Normalize(newSpans))
}

func TestRewritesChain(t *testing.T) {
	// two successive rewrites keep mapping back to the first original
	text := "Pt denies fever."
	t1, s1, err := Replace(text, fullSpans(text), []Span{{0, 2}}, []string{"Patient"})
	require.NoError(t, err)
	assert.Equal(t, "Patient denies fever.", t1)

	t2, s2, err := Replace(t1, s1, []Span{{0, 7}}, []string{"Subject"})
	require.NoError(t, err)
	assert.Equal(t, "Subject denies fever.", t2)
	assert.Equal(t, len(t2), Length(s2))

	ms, ok := s2[0].(ModifiedSpan)
	require.True(t, ok)
	assert.Equal(t, []Span{{0, 2}}, ms.ReplacedSpans)
}

func TestSubSpansSplitsSimpleSpans(t *testing.T) {
	spans := []AnySpan{Span{10, 20}}
	got := subSpans(spans, 2, 6)
	assert.Equal(t, []AnySpan{Span{12, 16}}, got)
}

func TestSubSpansKeepsModifiedAtomic(t *testing.T) {
	spans := []AnySpan{ModifiedSpan{Len: 10, ReplacedSpans: []Span{{0, 4}}}}
	got := subSpans(spans, 3, 7)
	require.Len(t, got, 1)
	ms := got[0].(ModifiedSpan)
	assert.Equal(t, 4, ms.Len)
	assert.Equal(t, []Span{{0, 4}}, ms.ReplacedSpans)
}
