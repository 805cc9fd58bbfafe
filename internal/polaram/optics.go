package polaram

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mueller matrices of the optical elements. Angles are in degrees, measured
// in the right-handed lab frame; rotated elements are R(θ)·M·R(−θ).

// GeneralLinearRetarder has its fast axis at theta and retardance delta.
func GeneralLinearRetarder(theta, delta float64) Mat4 {
	d := deg2rad(delta)
	c, s := math.Cos(d), math.Sin(d)
	m := I4()
	m.M[2][2], m.M[2][3] = c, -s
	m.M[3][2], m.M[3][3] = s, c
	return rotateElement(m, deg2rad(theta))
}

func HalfWavePlate(theta float64) Mat4    { return GeneralLinearRetarder(theta, 180) }
func QuarterWavePlate(theta float64) Mat4 { return GeneralLinearRetarder(theta, 90) }

// LinearHorizontalPolarizer transmits along x, turned by angle.
func LinearHorizontalPolarizer(angle float64) Mat4 {
	m := Mat4{M: [4][4]float64{
		{0.5, 0.5, 0, 0},
		{0.5, 0.5, 0, 0},
	}}
	if angle == 0 {
		return m
	}
	return rotateElement(m, deg2rad(angle))
}

// LinearVerticalPolarizer transmits along y, turned by angle.
func LinearVerticalPolarizer(angle float64) Mat4 {
	m := Mat4{M: [4][4]float64{
		{0.5, -0.5, 0, 0},
		{-0.5, 0.5, 0, 0},
	}}
	if angle == 0 {
		return m
	}
	return rotateElement(m, deg2rad(angle))
}

func AttenuatingFilter(transmission float64) (Mat4, error) {
	if transmission < 0 || transmission > 1 || !isFinite(transmission) {
		return Mat4{}, fmt.Errorf("%w: transmission must be in [0,1], got %g", ErrInstructionArguments, transmission)
	}
	return I4().Scale(transmission), nil
}

// Depolarizer keeps the fraction p of the light polarized.
func Depolarizer(p float64) (Mat4, error) {
	if p < 0 || p > 1 || !isFinite(p) {
		return Mat4{}, fmt.Errorf("%w: polarized part must be in [0,1], got %g", ErrInstructionArguments, p)
	}
	return Diag4(1, p, p, p), nil
}

// FiberF3 is the measured Mueller matrix of multi-mode fiber F3.
func FiberF3() Mat4 {
	return Mat4{M: [4][4]float64{
		{0.98734319, 0.004664235, -0.03808659, 0},
		{0.02519393, 0.520569010, 0.27315076, 0},
		{-0.04387837, -0.004022648, 0.60062411, 0},
		{0, 0, 0, 0},
	}}
}

// StokesFromSlice checks that v holds a physical Stokes vector: four finite
// values, S0 >= 0 and a degree of polarization of at most 1.
func StokesFromSlice(v []float64) (Stokes, error) {
	var s Stokes
	if len(v) != 4 {
		return s, fmt.Errorf("%w: stokes vector needs 4 values, got %d", ErrInstructionArguments, len(v))
	}
	for i, x := range v {
		if !isFinite(x) {
			return s, fmt.Errorf("%w: stokes parameter %d is %g", ErrInstructionArguments, i, x)
		}
		s[i] = x
	}
	if s[0] < 0 {
		return s, fmt.Errorf("%w: negative intensity %g", ErrInstructionArguments, s[0])
	}
	if s[0] > 0 && s.DegreeOfPolarization() > 1+PolarizationTol {
		return s, fmt.Errorf("%w: degree of polarization %.6g exceeds 1", ErrInstructionArguments, s.DegreeOfPolarization())
	}
	return s, nil
}

// ParseStokes reads "s0,s1,s2,s3" (commas and/or spaces).
func ParseStokes(text string) (Stokes, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Stokes{}, fmt.Errorf("%w: bad stokes parameter %q", ErrInstructionArguments, f)
		}
		vals[i] = v
	}
	return StokesFromSlice(vals)
}

// checkScatterable rejects light the sample Mueller matrices are not defined for:
// partially polarized or with a circular component.
func checkScatterable(s Stokes) error {
	if s[0] <= 0 {
		return nil
	}
	if math.Abs(s[3]) > PolarizationTol*s[0] {
		return fmt.Errorf("%w: circular component S3=%g", ErrUnsupportedPolarization, s[3])
	}
	if dop := s.DegreeOfPolarization(); math.Abs(dop-1) > PolarizationTol {
		return fmt.Errorf("%w: degree of polarization %.6g", ErrUnsupportedPolarization, dop)
	}
	return nil
}
