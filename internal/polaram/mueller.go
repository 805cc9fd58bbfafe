package polaram

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MuellerOf maps the in-plane block of a (rotated) tensor to a Mueller matrix.
// Scattered light is taken to travel along the tensor's third axis, so only
// xx, xy, yx, yy contribute. Row 3 and column 3 are always zero: the result
// is not defined for circular or unpolarized input, and callers must check that.
func MuellerOf(t Mat3) Mat4 {
	xx, xy := t.M[0][0], t.M[0][1]
	yx, yy := t.M[1][0], t.M[1][1]

	xx2, xy2, yx2, yy2 := xx*xx, xy*xy, yx*yx, yy*yy

	var m Mat4
	m.M[0][0] = (xx2 + yx2 + xy2 + yy2) / 2
	m.M[0][1] = (xx2 + yx2 - xy2 - yy2) / 2
	m.M[0][2] = xy*xx + yx*yy

	m.M[1][0] = (xx2 - yx2 + xy2 - yy2) / 2
	m.M[1][1] = (xx2 - yx2 - xy2 + yy2) / 2
	m.M[1][2] = xy*xx - yx*yy

	m.M[2][0] = xx*yx + xy*yy
	m.M[2][1] = xx*yx - xy*yy
	m.M[2][2] = xx*yy + xy*yx
	return m
}

// MuellerFromDense is MuellerOf for a dynamically shaped matrix.
func MuellerFromDense(a mat.Matrix) (Mat4, error) {
	r, c := a.Dims()
	if r != 3 || c != 3 {
		return Mat4{}, fmt.Errorf("%w: got %dx%d, want 3x3", ErrInvalidShape, r, c)
	}
	return MuellerOf(mat3FromMatrix(a)), nil
}

func mat3FromMatrix(a mat.Matrix) Mat3 {
	var t Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			t.M[r][c] = a.At(r, c)
		}
	}
	return t
}

// Dense returns t as a gonum matrix.
func (A Mat3) Dense() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			d.Set(r, c, A.M[r][c])
		}
	}
	return d
}
