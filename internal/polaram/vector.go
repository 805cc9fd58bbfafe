package polaram

import "math"

// Vector3 is a direction in the 3D lab frame.
type Vector3 struct {
	X, Y, Z float64
}

func (a Vector3) Add(b Vector3) Vector3 { return Vector3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (v Vector3) Mul(s float64) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product between two 3D vectors.
func (a Vector3) Dot(b Vector3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Len returns the Euclidean length of the vector.
func (v Vector3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Stokes is a Stokes vector [S0,S1,S2,S3]: intensity, H/V, diagonal and circular components.
type Stokes [4]float64

// Horizontal is fully horizontally polarized light of unit intensity.
var Horizontal = Stokes{1, 1, 0, 0}

func (A Mat4) MulStokes(s Stokes) Stokes {
	var out Stokes
	for r := 0; r < 4; r++ {
		out[r] = A.M[r][0]*s[0] + A.M[r][1]*s[1] + A.M[r][2]*s[2] + A.M[r][3]*s[3]
	}
	return out
}

// DegreeOfPolarization returns sqrt(S1²+S2²+S3²)/S0 (NaN for zero intensity).
func (s Stokes) DegreeOfPolarization() float64 {
	if s[0] == 0 {
		return math.NaN()
	}
	return math.Sqrt(s[1]*s[1]+s[2]*s[2]+s[3]*s[3]) / s[0]
}
