package polaram

import (
	"math"
	"math/rand"
)

// rotZ is a rotation about the lab z axis by a (radians).
func rotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	M := I3()
	M.M[0][0], M.M[0][1] = c, s
	M.M[1][0], M.M[1][1] = -s, c
	return M
}

// householder returns I - 2vvᵀ for a unit vector v.
func householder(v Vector3) Mat3 {
	c := [3]float64{v.X, v.Y, v.Z}
	H := I3()
	for r := 0; r < 3; r++ {
		for k := 0; k < 3; k++ {
			H.M[r][k] -= 2 * c[r] * c[k]
		}
	}
	return H
}

// SampleRotation draws a rotation matrix uniformly distributed on SO(3) (Arvo 1992).
// A random rotation about z is followed by a random Householder reflection;
// the sign flip restores det = +1.
func SampleRotation(rng *rand.Rand) Mat3 {
	theta := 2 * math.Pi * rng.Float64()
	phi := 2 * math.Pi * rng.Float64()
	x := rng.Float64()

	sx := math.Sqrt(x)
	v := Vector3{math.Cos(phi) * sx, math.Sin(phi) * sx, math.Sqrt(1 - x)}

	return householder(v).Mul(rotZ(theta)).Scale(-1)
}

// rotMueller rotates the Stokes reference frame by theta (radians) in the
// right-handed lab frame.
func rotMueller(theta float64) Mat4 {
	c, s := math.Cos(2*theta), math.Sin(2*theta)
	M := I4()
	M.M[1][1], M.M[1][2] = c, -s
	M.M[2][1], M.M[2][2] = s, c
	return M
}

// rotateElement returns R(θ)·M·R(−θ): the element M turned by θ about the beam.
func rotateElement(m Mat4, theta float64) Mat4 {
	return rotMueller(theta).Mul(m).Mul(rotMueller(-theta))
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
