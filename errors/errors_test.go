package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "annotation a1")
	assert.True(t, Is(err, ErrNotFound))
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "annotation a1")
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrInvalidSpan, ErrDuplicateID, ErrNotFound, ErrWiring, ErrCycle, ErrAborted}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestOperationError(t *testing.T) {
	cause := New("model crashed")
	err := NewOperationError("ann-3", "negation-detector", cause)

	assert.Contains(t, err.Error(), "ann-3")
	assert.Contains(t, err.Error(), "negation-detector")
	assert.True(t, Is(err, cause))

	var opErr *OperationError
	require.True(t, As(err, &opErr))
	assert.Equal(t, "ann-3", opErr.ItemID)
}

func TestIsIntegrity(t *testing.T) {
	assert.True(t, IsIntegrity(Wrap(ErrDuplicateID, "store add")))
	assert.True(t, IsIntegrity(Wrap(ErrCycle, "prov record")))
	assert.False(t, IsIntegrity(Wrap(ErrNotFound, "get")))
	assert.False(t, IsIntegrity(nil))
}

func TestNewInvalidSpan(t *testing.T) {
	err := NewInvalidSpan("range [%d,%d) overlaps previous", 3, 7)
	assert.True(t, Is(err, ErrInvalidSpan))
	assert.Contains(t, err.Error(), "[3,7)")
}
