package polaram

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// ConvergenceReport compares the depolarization ratio of a tensor with the
// one measured on its orientation-averaged Mueller matrix.
type ConvergenceReport struct {
	Head      string  `json:"head" yaml:"head"`
	Analytic  float64 `json:"analytic" yaml:"analytic"`
	Empirical float64 `json:"empirical" yaml:"empirical"`
	Digits    int     `json:"digits" yaml:"digits"`
	Passed    bool    `json:"passed" yaml:"passed"`
}

// Eigenvalues returns the (possibly complex) eigenvalues of t.
// Symmetric input goes through EigenSym, anything else through the general solver.
func Eigenvalues(t Mat3) ([]complex128, error) {
	if t.IsSymmetric(EigenSymmetryTol) {
		sym := mat.NewSymDense(3, nil)
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				sym.SetSym(i, j, (t.M[i][j]+t.M[j][i])/2)
			}
		}
		var es mat.EigenSym
		if ok := es.Factorize(sym, false); !ok {
			return nil, fmt.Errorf("%w: symmetric solver did not converge", ErrEigenDecompositionFailed)
		}
		vals := es.Values(nil)
		out := make([]complex128, len(vals))
		for i, v := range vals {
			out[i] = complex(v, 0)
		}
		return out, nil
	}

	var eig mat.Eigen
	if ok := eig.Factorize(t.Dense(), mat.EigenNone); !ok {
		return nil, fmt.Errorf("%w: general solver did not converge", ErrEigenDecompositionFailed)
	}
	return eig.Values(nil), nil
}

// AnalyticRatio is 3γ²/(45a²+4γ²) with a the mean eigenvalue and
// γ² = ((λ1-λ2)²+(λ2-λ3)²+(λ3-λ1)²)/2. Both invariants are real even when
// the eigenvalues come in a conjugate pair.
func AnalyticRatio(t Mat3) (float64, error) {
	l, err := Eigenvalues(t)
	if err != nil {
		return 0, err
	}
	if len(l) != 3 {
		return 0, fmt.Errorf("%w: got %d eigenvalues", ErrEigenDecompositionFailed, len(l))
	}
	for _, v := range l {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return 0, fmt.Errorf("%w: non-finite eigenvalue %v", ErrEigenDecompositionFailed, v)
		}
	}
	iso := real(l[0]+l[1]+l[2]) / 3
	d01, d12, d20 := l[0]-l[1], l[1]-l[2], l[2]-l[0]
	aniso2 := real(d01*d01+d12*d12+d20*d20) / 2
	den := 45*iso*iso + 4*aniso2
	if den == 0 {
		return math.NaN(), nil
	}
	return 3 * aniso2 / den, nil
}

// EmpiricalRatio applies m to horizontally polarized light and returns (I0-I1)/(I0+I1).
// NaN when no light is scattered.
func EmpiricalRatio(m Mat4) float64 {
	s := m.MulStokes(Horizontal)
	sum := s[0] + s[1]
	if sum == 0 {
		return math.NaN()
	}
	return (s[0] - s[1]) / sum
}

// Validate checks that the averaged Mueller matrix reproduces the tensor's
// depolarization ratio to the given number of decimal digits.
func Validate(t RamanTensor, m Mat4, digits int) (ConvergenceReport, error) {
	if digits <= 0 {
		return ConvergenceReport{}, fmt.Errorf("%w: precision must be positive, got %d", ErrInvalidParameter, digits)
	}
	analytic, err := AnalyticRatio(t.M)
	if err != nil {
		return ConvergenceReport{}, fmt.Errorf("mode %q: %w", t.Head, err)
	}
	empirical := EmpiricalRatio(m)
	rep := ConvergenceReport{
		Head:      t.Head,
		Analytic:  analytic,
		Empirical: empirical,
		Digits:    digits,
	}
	rep.Passed = isFinite(analytic) && isFinite(empirical) &&
		roundTo(analytic, digits) == roundTo(empirical, digits)
	return rep, nil
}
