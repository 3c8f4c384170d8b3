package prov

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/op"
)

func TestAddAndLookup(t *testing.T) {
	g := NewGraph()
	desc := op.Descriptor{ID: "op-1", Name: "sentence-splitter"}
	require.NoError(t, g.Add("sent-1", desc, []string{"raw-1"}))

	got, err := g.OperationOf("sent-1")
	require.NoError(t, err)
	assert.Equal(t, "sentence-splitter", got.Name)

	inputs, err := g.InputsOf("sent-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw-1"}, inputs)
}

func TestSourceNodesHaveNoRecord(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("sent-1", op.Descriptor{Name: "split"}, []string{"raw-1"}))

	_, err := g.OperationOf("raw-1")
	assert.True(t, errors.IsNotFound(err))

	_, err = g.InputsOf("raw-1")
	assert.True(t, errors.IsNotFound(err))
}

func TestSingleWriter(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("ent-1", op.Descriptor{Name: "matcher-a"}, []string{"sent-1"}))

	err := g.Add("ent-1", op.Descriptor{Name: "matcher-b"}, []string{"sent-2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateID))

	// first record is untouched
	got, err := g.OperationOf("ent-1")
	require.NoError(t, err)
	assert.Equal(t, "matcher-a", got.Name)
}

func TestCycleRejected(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("b", op.Descriptor{Name: "f"}, []string{"a"}))
	require.NoError(t, g.Add("c", op.Descriptor{Name: "g"}, []string{"b"}))

	err := g.Add("a", op.Descriptor{Name: "h"}, []string{"c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCycle))

	// self-loop
	err = g.Add("x", op.Descriptor{Name: "h"}, []string{"x"})
	assert.True(t, errors.Is(err, errors.ErrCycle))
}

func TestAncestorsNeverContainSelf(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("sent-1", op.Descriptor{Name: "split"}, []string{"raw-1"}))
	require.NoError(t, g.Add("ent-1", op.Descriptor{Name: "match"}, []string{"sent-1"}))
	require.NoError(t, g.Add("attr-1", op.Descriptor{Name: "negate"}, []string{"ent-1", "sent-1"}))

	anc := g.Ancestors("attr-1")
	assert.Equal(t, []string{"ent-1", "raw-1", "sent-1"}, anc)
	assert.NotContains(t, anc, "attr-1")

	assert.Empty(t, g.Ancestors("raw-1"))
}

func TestDownstreamClosure(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("sent-1", op.Descriptor{Name: "split"}, []string{"raw-1"}))
	require.NoError(t, g.Add("sent-2", op.Descriptor{Name: "split"}, []string{"raw-1"}))
	require.NoError(t, g.Add("ent-1", op.Descriptor{Name: "match"}, []string{"sent-1"}))

	assert.Equal(t, []string{"ent-1", "sent-1", "sent-2"}, g.Downstream("raw-1"))
	assert.Equal(t, []string{"ent-1"}, g.Downstream("sent-1"))
	assert.Empty(t, g.Downstream("ent-1"))
}

func TestRecordsInsertionOrder(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("b", op.Descriptor{Name: "f"}, []string{"a"}))
	require.NoError(t, g.Add("c", op.Descriptor{Name: "g"}, []string{"b"}))
	require.NoError(t, g.Add("d", op.Descriptor{Name: "g"}, nil))

	recs := g.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "b", recs[0].OutputID)
	assert.Equal(t, "c", recs[1].OutputID)
	assert.Equal(t, "d", recs[2].OutputID)
	assert.Equal(t, 3, g.Len())
}

func TestWriteDot(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add("sent-1", op.Descriptor{Name: "split"}, []string{"raw-1"}))
	require.NoError(t, g.Add("ent-1", op.Descriptor{Name: "match"}, []string{"sent-1"}))
	require.NoError(t, g.Add("orphan", op.Descriptor{Name: "gen"}, nil))

	var b strings.Builder
	require.NoError(t, g.WriteDot(&b))
	out := b.String()

	assert.True(t, strings.HasPrefix(out, "digraph provenance {"))
	assert.Contains(t, out, `"raw-1" -> "sent-1" [label="split"];`)
	assert.Contains(t, out, `"sent-1" -> "ent-1" [label="match"];`)
	assert.Contains(t, out, `"orphan";`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
}
