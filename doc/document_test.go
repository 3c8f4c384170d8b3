package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/span"
)

func TestRawSegmentCoversWholeText(t *testing.T) {
	d := New("Patient denies fever.")
	raw := d.RawSegment()
	assert.Equal(t, RawTextLabel, raw.Label())
	assert.Equal(t, d.Text(), raw.Text)
	assert.Equal(t, []span.Span{{Start: 0, End: 21}}, span.Normalize(raw.Spans))
}

func TestRawSegmentIDStableForSameDocID(t *testing.T) {
	a := New("text", WithID("doc-1"))
	b := New("text", WithID("doc-1"))
	assert.Equal(t, a.RawSegment().ID(), b.RawSegment().ID())

	c := New("text", WithID("doc-2"))
	assert.NotEqual(t, a.RawSegment().ID(), c.RawSegment().ID())
}

func TestRawSegmentInjectedNotStored(t *testing.T) {
	d := New("some text")
	assert.Equal(t, 0, d.Anns().Len())

	byLabel := d.ByLabel(RawTextLabel)
	require.Len(t, byLabel, 1)
	assert.Equal(t, d.RawSegment().ID(), byLabel[0].ID())

	got, err := d.Get(d.RawSegment().ID())
	require.NoError(t, err)
	assert.Equal(t, d.RawSegment().ID(), got.ID())
}

func TestAddRejectsReservedLabel(t *testing.T) {
	d := New("some text")
	err := d.Add(anot.NewSegment(RawTextLabel, nil, "x"))
	assert.Error(t, err)
}

func TestAddAndLookup(t *testing.T) {
	d := New("Patient denies fever.")
	ent := anot.NewEntity("fever", []span.AnySpan{span.Span{Start: 15, End: 20}}, "fever")
	require.NoError(t, d.Add(ent))

	got := d.ByLabel("fever")
	require.Len(t, got, 1)
	assert.Equal(t, ent.ID(), got[0].ID())
}

func TestNewDerivedValidatesMapping(t *testing.T) {
	parent := New("Pt denies fever.")

	text, spans, err := span.Replace(parent.Text(), []span.AnySpan{span.Span{Start: 0, End: 16}},
		[]span.Span{{Start: 0, End: 2}}, []string{"Patient"})
	require.NoError(t, err)

	derived, err := NewDerived(parent, text, spans)
	require.NoError(t, err)
	assert.True(t, derived.IsDerived())
	assert.Equal(t, parent.ID(), derived.ParentID())
	assert.Equal(t, "Patient denies fever.", derived.Text())

	// mapping length mismatch is rejected
	_, err = NewDerived(parent, text, spans[:1])
	assert.True(t, errors.Is(err, errors.ErrInvalidSpan))
}

func TestAudioDocument(t *testing.T) {
	d := NewAudio(FileAudioBuffer{Path: "consult.wav", SampleRate: 16000, Seconds: 12.5})
	raw := d.RawSegment()
	assert.Equal(t, RawAudioLabel, raw.Label())
	assert.InDelta(t, 12.5, raw.Span.Duration(), 1e-9)

	err := d.Add(anot.NewAudioSegment(RawAudioLabel, span.TimeSpan{Start: 0, End: 1}))
	assert.Error(t, err)

	turn := anot.NewAudioSegment("speaker_turn", span.TimeSpan{Start: 0.5, End: 4.2})
	require.NoError(t, d.Add(turn))
	assert.Len(t, d.ByLabel("speaker_turn"), 1)

	got, err := d.Get(raw.ID())
	require.NoError(t, err)
	assert.Equal(t, raw.ID(), got.ID())
}
