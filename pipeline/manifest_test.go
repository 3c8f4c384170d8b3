package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinpipe/clinpipe/errors"
	"github.com/clinpipe/clinpipe/op"
)

const sampleManifest = `
name: negation
inputs: [full_text]
outputs: [entities]
steps:
  - operation: sentence-splitter
    inputs: [full_text]
    outputs: [sentences]
  - operation: negation-detector
    inputs: [sentences]
    outputs: [entities]
    fail_fast: true
`

func manifestRegistry(t *testing.T) *op.Registry {
	t.Helper()
	reg := op.NewRegistry("1.0.0")
	require.NoError(t, reg.Register(splitter{}))
	require.NoError(t, reg.Register(negationDetector{}))
	return reg
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, "negation", m.Name)
	assert.Equal(t, []string{"full_text"}, m.Inputs)
	require.Len(t, m.Steps, 2)
	assert.True(t, m.Steps[1].FailFast)
}

func TestParseManifestRejectsGarbage(t *testing.T) {
	_, err := ParseManifest([]byte("steps: {not a list"))
	assert.Error(t, err)
}

func TestParseManifestRejectsEmptySteps(t *testing.T) {
	_, err := ParseManifest([]byte("name: empty"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWiring))
}

func TestManifestBuild(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	p, err := m.Build(manifestRegistry(t))
	require.NoError(t, err)
	assert.Len(t, p.Steps(), 2)
	assert.True(t, p.Steps()[1].FailFast)
}

func TestManifestBuildUnknownOperation(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	_, err = m.Build(op.NewRegistry("1.0.0"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestManifestBuildBadWiring(t *testing.T) {
	m, err := ParseManifest([]byte(`
name: broken
inputs: [full_text]
outputs: [entities]
steps:
  - operation: negation-detector
    inputs: [sentences]
    outputs: [entities]
`))
	require.NoError(t, err)

	_, err = m.Build(manifestRegistry(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWiring))
}
