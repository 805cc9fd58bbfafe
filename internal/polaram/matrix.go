package polaram

// 3×3 matrix (row-major), used for raman tensors and rotations.
type Mat3 struct {
	M [3][3]float64
}

// 4×4 matrix (row-major), used for Mueller matrices.
type Mat4 struct {
	M [4][4]float64
}

func I3() Mat3 {
	return Mat3{M: [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}}
}

func I4() Mat4 {
	return Mat4{M: [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}}
}

// Diag3 builds a diagonal 3×3 matrix.
func Diag3(a, b, c float64) Mat3 {
	return Mat3{M: [3][3]float64{{a, 0, 0}, {0, b, 0}, {0, 0, c}}}
}

// Diag4 builds a diagonal 4×4 matrix.
func Diag4(a, b, c, d float64) Mat4 {
	return Mat4{M: [4][4]float64{{a, 0, 0, 0}, {0, b, 0, 0}, {0, 0, c, 0}, {0, 0, 0, d}}}
}

func (A Mat3) Mul(B Mat3) Mat3 {
	var R Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += A.M[r][k] * B.M[k][c]
			}
			R.M[r][c] = sum
		}
	}
	return R
}

func (A Mat3) Transpose() Mat3 {
	var R Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			R.M[r][c] = A.M[c][r]
		}
	}
	return R
}

func (A Mat3) Add(B Mat3) Mat3 {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			A.M[r][c] += B.M[r][c]
		}
	}
	return A
}

func (A Mat3) Scale(s float64) Mat3 {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			A.M[r][c] *= s
		}
	}
	return A
}

func (A Mat3) MulVec(v Vector3) Vector3 {
	return Vector3{
		A.M[0][0]*v.X + A.M[0][1]*v.Y + A.M[0][2]*v.Z,
		A.M[1][0]*v.X + A.M[1][1]*v.Y + A.M[1][2]*v.Z,
		A.M[2][0]*v.X + A.M[2][1]*v.Y + A.M[2][2]*v.Z,
	}
}

// Det returns the determinant (rule of Sarrus).
func (A Mat3) Det() float64 {
	m := A.M
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// IsSymmetric reports whether |A[i][j]-A[j][i]| <= tol for all i<j.
func (A Mat3) IsSymmetric(tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			d := A.M[i][j] - A.M[j][i]
			if d > tol || d < -tol {
				return false
			}
		}
	}
	return true
}

// Rows returns the matrix as a slice of rows (for writers and gonum interop).
func (A Mat3) Rows() [][]float64 {
	rows := make([][]float64, 3)
	for r := range rows {
		rows[r] = append([]float64(nil), A.M[r][:]...)
	}
	return rows
}

func (A Mat4) Mul(B Mat4) Mat4 {
	var R Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += A.M[r][k] * B.M[k][c]
			}
			R.M[r][c] = sum
		}
	}
	return R
}

func (A Mat4) Add(B Mat4) Mat4 {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			A.M[r][c] += B.M[r][c]
		}
	}
	return A
}

func (A Mat4) Scale(s float64) Mat4 {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			A.M[r][c] *= s
		}
	}
	return A
}

func (A Mat4) Rows() [][]float64 {
	rows := make([][]float64, 4)
	for r := range rows {
		rows[r] = append([]float64(nil), A.M[r][:]...)
	}
	return rows
}
