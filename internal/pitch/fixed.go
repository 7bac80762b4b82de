// Package pitch provides the fixed-point coordinate system and field geometry
// shared by every simulation component.
//
// All positions and velocities are stored as Fixed, an int64 with 10 fractional
// bits (1024 units per meter, ~1 mm resolution). Integer math keeps replays
// bit-identical across runs; float64 shows up only at the edges (config, JSON,
// trig) and is re-quantized immediately.
package pitch

import "math"

// Q.10 fixed point constants.
const (
	Shift = 10
	Scale = 1 << Shift // units per meter
	Half  = 1 << (Shift - 1)
)

// Fixed is a Q.10 fixed-point scalar: 1 meter = 1024 units.
type Fixed int64

// One is 1.0 meters.
const One Fixed = Scale

// FromMeters converts a float64 meter value to Fixed, rounding to the
// nearest unit.
func FromMeters(m float64) Fixed {
	if m >= 0 {
		return Fixed(m*Scale + 0.5)
	}
	return Fixed(m*Scale - 0.5)
}

// FromInt converts whole meters to Fixed.
func FromInt(m int) Fixed { return Fixed(m) << Shift }

// Meters converts back to float64 meters.
func (f Fixed) Meters() float64 { return float64(f) / Scale }

// Round returns the nearest whole-meter value.
func (f Fixed) Round() int {
	if f >= 0 {
		return int((f + Half) >> Shift)
	}
	return -int((-f + Half) >> Shift)
}

// Mul multiplies two Fixed values.
// Field magnitudes stay far below 2^26 units, so the raw product fits int64
// with room to spare; no 128-bit intermediate needed at Q.10.
func (f Fixed) Mul(g Fixed) Fixed { return (f * g) >> Shift }

// Div divides f by g. Division by zero returns 0 (never panics mid-match).
func (f Fixed) Div(g Fixed) Fixed {
	if g == 0 {
		return 0
	}
	return (f << Shift) / g
}

// Abs returns the absolute value.
func (f Fixed) Abs() Fixed {
	if f < 0 {
		return -f
	}
	return f
}

// Clamp limits f to [lo, hi].
func Clamp(f, lo, hi Fixed) Fixed {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// Min returns the smaller of a and b.
func Min(a, b Fixed) Fixed {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Fixed) Fixed {
	if a > b {
		return a
	}
	return b
}

// Sqrt returns the square root using Newton-Raphson iteration.
// Converges well within 12 iterations for any on-field magnitude.
func Sqrt(x Fixed) Fixed {
	if x <= 0 {
		return 0
	}
	guess := x
	if guess > One {
		guess = One
		for guess < x>>1 {
			guess <<= 1
		}
	} else {
		guess = x >> 1
		if guess == 0 {
			guess = 1
		}
	}
	for i := 0; i < 12; i++ {
		if guess == 0 {
			return 0
		}
		guess = (guess + x.Div(guess)) >> 1
	}
	return guess
}

// Hypot returns sqrt(x² + y²) without overflow for on-field magnitudes.
func Hypot(x, y Fixed) Fixed {
	return Sqrt(x.Mul(x) + y.Mul(y))
}

// FromFloat re-quantizes an arbitrary float64 value (meters or unitless
// factors alike). NaN and infinities collapse to 0 rather than poisoning
// integer state.
func FromFloat(v float64) Fixed {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return FromMeters(v)
}

// Lerp interpolates between a and b by t (0.0–1.0 as Fixed).
func Lerp(a, b, t Fixed) Fixed {
	return a + (b-a).Mul(t)
}
