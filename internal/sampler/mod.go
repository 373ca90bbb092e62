package sampler

import "math"

// Signed is the set of signed integer types accepted by Mod.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Mod returns a modulo b with the sign of b, so Mod(-1, 4) == 3. A negative
// divisor mirrors the result: Mod(a, -b) == -Mod(-a, b). It panics if b is 0.
func Mod[T Signed](a, b T) T {
	if b < 0 {
		return -Mod(-a, -b)
	}
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// Modf is Mod for floats. Modf(a, 0) is NaN.
func Modf(a, b float64) float64 {
	if b < 0 {
		return -Modf(-a, -b)
	}
	r := math.Mod(a, b)
	if r < 0 {
		r += b
	}
	return r
}
