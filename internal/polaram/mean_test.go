package polaram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningMeanFold(t *testing.T) {
	m := RunningMean{Head: "x"}
	require.NoError(t, m.Fold(chunkSum{Head: "x", N: 2, Tensor: Diag3(2, 4, 6)}))
	assert.Equal(t, int64(2), m.N)
	assert.Equal(t, Diag3(1, 2, 3), m.Tensor)

	// mean of {1,1,4}: (2*1 + 4)/3 = 2
	require.NoError(t, m.Fold(chunkSum{Head: "x", N: 1, Tensor: Diag3(4, 4, 4)}))
	assert.Equal(t, int64(3), m.N)
	assert.InDelta(t, 2.0, m.Tensor.M[0][0], 1e-12)
	assert.InDelta(t, 8.0/3, m.Tensor.M[1][1], 1e-12)
}

func TestRunningMeanFoldHeaderMismatch(t *testing.T) {
	m := RunningMean{Head: "x"}
	err := m.Fold(chunkSum{Head: "y", N: 1})
	require.ErrorIs(t, err, ErrHeaderMismatch)
	assert.Zero(t, m.N)
}

func TestFoldAllChecksLengthAndOrder(t *testing.T) {
	means := NewRunningMeans([]RamanTensor{{Head: "a"}, {Head: "b"}})
	require.ErrorIs(t, foldAll(means, []chunkSum{{Head: "a", N: 1}}), ErrHeaderMismatch)
	require.ErrorIs(t, foldAll(means, []chunkSum{{Head: "b", N: 1}, {Head: "a", N: 1}}), ErrHeaderMismatch)
	require.NoError(t, foldAll(means, []chunkSum{{Head: "a", N: 1}, {Head: "b", N: 1}}))
}
