package polaram

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticRatio(t *testing.T) {
	cases := []struct {
		name string
		t    Mat3
		want float64
	}{
		{"isotropic", I3(), 0},
		{"uniaxial", Diag3(1, 0, 0), 1.0 / 3},
		{"traceless", Diag3(1, -1, 0), 0.75},
		{"rotated uniaxial", Rotate(Diag3(1, 0, 0), rotZ(0.7)), 1.0 / 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AnalyticRatio(tc.t)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestAnalyticRatioNonSymmetric(t *testing.T) {
	// eigenvalues ±i and 0: complex pair, real invariants (a = 0, γ² = -3)
	A := Mat3{M: [3][3]float64{{0, 1, 0}, {-1, 0, 0}, {0, 0, 0}}}
	got, err := AnalyticRatio(A)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-9)

	// upper triangular: eigenvalues are the diagonal
	B := Mat3{M: [3][3]float64{{1, 5, 0}, {0, 0, 2}, {0, 0, 0}}}
	got, err = AnalyticRatio(B)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, got, 1e-9)
}

func TestEmpiricalRatio(t *testing.T) {
	assert.InDelta(t, 0, EmpiricalRatio(MuellerOf(I3())), 1e-15)
	assert.True(t, math.IsNaN(EmpiricalRatio(Mat4{})))
}

func TestValidate(t *testing.T) {
	iso := RamanTensor{Head: "iso", M: I3()}
	rep, err := Validate(iso, MuellerOf(I3()), 2)
	require.NoError(t, err)
	assert.True(t, rep.Passed)
	assert.Equal(t, "iso", rep.Head)
	assert.Equal(t, 2, rep.Digits)

	// an isotropic average cannot reproduce a uniaxial tensor's ratio
	uni := RamanTensor{Head: "uni", M: Diag3(1, 0, 0)}
	rep, err = Validate(uni, MuellerOf(I3()), 2)
	require.NoError(t, err)
	assert.False(t, rep.Passed)

	rep, err = Validate(uni, Mat4{}, 2)
	require.NoError(t, err)
	assert.False(t, rep.Passed, "NaN never passes")

	_, err = Validate(uni, Mat4{}, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestUniaxialConvergesToOneThird(t *testing.T) {
	ts := []RamanTensor{{Head: "uni", M: Diag3(1, 0, 0)}}
	means := NewRunningMeans(ts)
	require.NoError(t, NewSampler(4, 1000, 17).Sample(context.Background(), ts, 100000, means))
	rep, err := Validate(ts[0], means[0].Mueller, 1)
	require.NoError(t, err)
	assert.True(t, rep.Passed, "analytic %.4f empirical %.4f", rep.Analytic, rep.Empirical)
	assert.InDelta(t, 1.0/3, rep.Empirical, 0.02)
}

func TestAnalyticRatioNonFiniteTensor(t *testing.T) {
	m := Diag3(1, 2, 3)
	m.M[0][1] = math.NaN()
	_, err := AnalyticRatio(m)
	require.ErrorIs(t, err, ErrEigenDecompositionFailed)

	_, err = Validate(RamanTensor{Head: "bad", M: m}, I4(), 2)
	require.ErrorIs(t, err, ErrEigenDecompositionFailed)
}

func TestRoundToTiesToEven(t *testing.T) {
	cases := []struct {
		x      float64
		digits int
		want   float64
	}{
		{0.125, 2, 0.12},
		{0.375, 2, 0.38},
		{-0.125, 2, -0.12},
		{2.675, 2, 2.67}, // stored just below the tie
		{0.3333333, 3, 0.333},
		{0.75, 1, 0.8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, roundTo(c.x, c.digits), "roundTo(%v, %d)", c.x, c.digits)
	}
	assert.True(t, math.IsNaN(roundTo(math.NaN(), 2)))
}
