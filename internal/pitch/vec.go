package pitch

import "math"

// Vec is a 2D fixed-point vector. Used for horizontal velocities, offsets,
// and spin; the field plane only, height rides separately on Coord10.
type Vec struct {
	X Fixed `json:"x"`
	Y Fixed `json:"y"`
}

// VecFromMeters builds a Vec from float64 meter components.
func VecFromMeters(x, y float64) Vec {
	return Vec{FromFloat(x), FromFloat(y)}
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale multiplies both components by a Fixed factor.
func (v Vec) Scale(k Fixed) Vec { return Vec{v.X.Mul(k), v.Y.Mul(k)} }

// ScaleFloat multiplies by a float64 factor and re-quantizes.
// Deterministic for a given build: same inputs, same bits.
func (v Vec) ScaleFloat(k float64) Vec {
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return Vec{}
	}
	return Vec{quantize(float64(v.X) * k), quantize(float64(v.Y) * k)}
}

func quantize(raw float64) Fixed {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	if raw >= 0 {
		return Fixed(raw + 0.5)
	}
	return Fixed(raw - 0.5)
}

// Dot returns the dot product.
func (v Vec) Dot(o Vec) Fixed { return v.X.Mul(o.X) + v.Y.Mul(o.Y) }

// LenSq returns the squared length. Prefer this for comparisons; no sqrt.
func (v Vec) LenSq() Fixed { return v.X.Mul(v.X) + v.Y.Mul(v.Y) }

// Len returns the vector length.
func (v Vec) Len() Fixed { return Hypot(v.X, v.Y) }

// IsZero reports whether both components are exactly zero.
func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Normalize returns the unit vector (length One). Zero-safe.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X.Div(l), v.Y.Div(l)}
}

// ClampLen limits the vector to maxLen, preserving direction.
func (v Vec) ClampLen(maxLen Fixed) Vec {
	l := v.Len()
	if l <= maxLen || l == 0 {
		return v
	}
	k := maxLen.Div(l)
	return Vec{v.X.Mul(k), v.Y.Mul(k)}
}

// WithLen rescales the vector to exactly length l. Zero vectors stay zero.
func (v Vec) WithLen(l Fixed) Vec {
	cur := v.Len()
	if cur == 0 {
		return Vec{}
	}
	k := l.Div(cur)
	return Vec{v.X.Mul(k), v.Y.Mul(k)}
}

// Rotate rotates the vector by deg degrees counter-clockwise.
// Trig runs in float64 and the result is re-quantized into Fixed.
func (v Vec) Rotate(deg float64) Vec {
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	fx, fy := float64(v.X), float64(v.Y)
	return Vec{quantize(fx*cos - fy*sin), quantize(fx*sin + fy*cos)}
}

// Perp returns the vector rotated 90° counter-clockwise.
func (v Vec) Perp() Vec { return Vec{-v.Y, v.X} }

// Neg returns the negated vector.
func (v Vec) Neg() Vec { return Vec{-v.X, -v.Y} }
