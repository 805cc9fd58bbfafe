package polaram

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMuellerOfIsotropicTensor(t *testing.T) {
	m := MuellerOf(I3())
	assert.Equal(t, Diag4(1, 1, 1, 0), m)
	assert.Equal(t, Horizontal, m.MulStokes(Horizontal))
}

func TestMuellerOfLastRowAndColumnAreZero(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	T := Mat3{M: [3][3]float64{{1, 0.2, -0.4}, {0.3, 2, 0.1}, {0.7, -0.2, 0.5}}}
	for i := 0; i < 100; i++ {
		m := MuellerOf(Rotate(T, SampleRotation(rng)))
		for k := 0; k < 4; k++ {
			require.Zero(t, m.M[3][k], "row 3, col %d", k)
			require.Zero(t, m.M[k][3], "row %d, col 3", k)
		}
	}
}

func TestMuellerOfFormula(t *testing.T) {
	T := Mat3{M: [3][3]float64{{2, 3, 9}, {5, 7, 9}, {9, 9, 9}}}
	xx, xy, yx, yy := 2.0, 3.0, 5.0, 7.0
	m := MuellerOf(T)
	assert.InDelta(t, (xx*xx+yx*yx+xy*xy+yy*yy)/2, m.M[0][0], 1e-12)
	assert.InDelta(t, (xx*xx+yx*yx-xy*xy-yy*yy)/2, m.M[0][1], 1e-12)
	assert.InDelta(t, xy*xx+yx*yy, m.M[0][2], 1e-12)
	assert.InDelta(t, (xx*xx-yx*yx+xy*xy-yy*yy)/2, m.M[1][0], 1e-12)
	assert.InDelta(t, (xx*xx-yx*yx-xy*xy+yy*yy)/2, m.M[1][1], 1e-12)
	assert.InDelta(t, xy*xx-yx*yy, m.M[1][2], 1e-12)
	assert.InDelta(t, xx*yx+xy*yy, m.M[2][0], 1e-12)
	assert.InDelta(t, xx*yx-xy*yy, m.M[2][1], 1e-12)
	assert.InDelta(t, xx*yy+xy*yx, m.M[2][2], 1e-12)
}

func TestMuellerFromDenseShape(t *testing.T) {
	_, err := MuellerFromDense(mat.NewDense(2, 3, nil))
	require.ErrorIs(t, err, ErrInvalidShape)
	_, err = MuellerFromDense(mat.NewDense(4, 4, nil))
	require.ErrorIs(t, err, ErrInvalidShape)

	m, err := MuellerFromDense(Diag3(1, 1, 1).Dense())
	require.NoError(t, err)
	assert.Equal(t, MuellerOf(I3()), m)
}

func TestSampleTaskSharesRotationAndKeepsOrder(t *testing.T) {
	tensors := []RamanTensor{
		{Head: "a", M: Diag3(1, 0, 0)},
		{Head: "b", M: Diag3(0, 1, 0)},
		{Head: "iso", M: I3()},
	}
	obs := SampleTask(tensors, rand.New(rand.NewSource(11)))
	require.Len(t, obs, 3)
	assert.Equal(t, []string{"a", "b", "iso"}, []string{obs[0].Head, obs[1].Head, obs[2].Head})

	// same stream -> same rotation
	R := SampleRotation(rand.New(rand.NewSource(11)))
	for i, o := range obs {
		assert.Equal(t, Rotate(tensors[i].M, R), o.Tensor)
		assert.Equal(t, MuellerOf(o.Tensor), o.Mueller)
	}
	// a + b + c(=e3e3ᵀ) = I, and linearity holds under one shared rotation
	sum := obs[0].Tensor.Add(obs[1].Tensor).Add(Rotate(Diag3(0, 0, 1), R))
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, obs[2].Tensor.M[r][c], sum.M[r][c], 1e-12)
		}
	}
}
