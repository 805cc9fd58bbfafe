package polaram

import (
	"math"
	"testing"
)

func TestI3MulVec(t *testing.T) {
	v := Vector3{1, 2, 3}
	if out := I3().MulVec(v); out != v {
		t.Fatalf("I*v != v: %+v", out)
	}
}

func TestTransposeAndMul(t *testing.T) {
	M := Mat3{M: [3][3]float64{
		{1, 2, 3},
		{0, 1, 0.5},
		{2, 0, -1},
	}}
	T := M.Transpose()
	if T.M[0][1] != M.M[1][0] || T.M[2][1] != M.M[1][2] {
		t.Fatal("Transpose mismatch")
	}
	S := T.Mul(M)
	if math.Abs(S.M[0][1]-S.M[1][0]) > 1e-12 {
		t.Fatal("M^T M not symmetric")
	}
	if I3().Mul(M) != M {
		t.Fatal("I*M != M")
	}
	P := Mat4{M: [4][4]float64{
		{1, 2, 3, 4},
		{0, 1, 0, 0.5},
		{2, 0, 1, -1},
		{0, 0, 0.25, 1},
	}}
	if I4().Mul(P) != P || P.Mul(I4()) != P {
		t.Fatal("I*P != P")
	}
}

func TestMat3Det(t *testing.T) {
	if d := Diag3(2, 3, 4).Det(); d != 24 {
		t.Fatalf("det diag(2,3,4) = %g", d)
	}
	A := Mat3{M: [3][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 10}}}
	if d := A.Det(); math.Abs(d+3) > 1e-12 {
		t.Fatalf("det = %g, want -3", d)
	}
}

func TestScaleAdd(t *testing.T) {
	A := Diag3(1, 2, 3)
	B := A.Scale(0.5).Add(A.Scale(0.5))
	if B != A {
		t.Fatalf("A/2 + A/2 != A: %+v", B)
	}
	// value receivers: A itself is untouched
	if A != Diag3(1, 2, 3) {
		t.Fatal("Scale mutated its receiver")
	}
}

func TestIsSymmetric(t *testing.T) {
	A := Diag3(1, 2, 3)
	A.M[0][1], A.M[1][0] = 0.5, 0.5
	if !A.IsSymmetric(0) {
		t.Fatal("expected symmetric")
	}
	A.M[1][0] = 0.4
	if A.IsSymmetric(1e-12) {
		t.Fatal("expected non-symmetric")
	}
}

func TestStokesDegreeOfPolarization(t *testing.T) {
	if d := Horizontal.DegreeOfPolarization(); d != 1 {
		t.Fatalf("DOP(H) = %g", d)
	}
	if d := (Stokes{2, 1, 0, 0}).DegreeOfPolarization(); math.Abs(d-0.5) > 1e-15 {
		t.Fatalf("DOP = %g, want 0.5", d)
	}
	if !math.IsNaN((Stokes{}).DegreeOfPolarization()) {
		t.Fatal("DOP of darkness should be NaN")
	}
}
