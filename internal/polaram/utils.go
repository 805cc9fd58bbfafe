package polaram

import (
	"math"
	"strconv"
)

func isFinite(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func imin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// roundTo rounds the exact binary value of x to the given number of decimal
// digits, ties to even: 0.125 -> 0.12, 2.675 -> 2.67.
func roundTo(x float64, digits int) float64 {
	if !isFinite(x) {
		return x
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', digits, 64), 64)
	return r
}
