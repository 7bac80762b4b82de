package pitch

// Coord10 is the canonical position type: 2D field position plus a separate
// height, all Q.10 fixed point ("10" for the fractional bits). Every position
// in the engine is a Coord10 and is re-clamped after every update; nothing
// downstream ever sees an out-of-margin coordinate.
type Coord10 struct {
	X Fixed `json:"x"`
	Y Fixed `json:"y"`
	H Fixed `json:"h"` // height above the turf, 0 = on the ground
}

// C builds a ground-level Coord10.
func C(x, y Fixed) Coord10 { return Coord10{X: x, Y: y} }

// CoordFromMeters builds a ground-level Coord10 from float64 meters.
func CoordFromMeters(xm, ym float64) Coord10 {
	return Coord10{X: FromFloat(xm), Y: FromFloat(ym)}
}

// Vec2 returns the horizontal components as a Vec (height dropped).
func (c Coord10) Vec2() Vec { return Vec{c.X, c.Y} }

// WithH returns a copy at height h.
func (c Coord10) WithH(h Fixed) Coord10 {
	c.H = h
	return c
}

// Add offsets the horizontal position by v.
func (c Coord10) Add(v Vec) Coord10 {
	c.X += v.X
	c.Y += v.Y
	return c
}

// To returns the horizontal vector from c to o.
func (c Coord10) To(o Coord10) Vec { return Vec{o.X - c.X, o.Y - c.Y} }

// DistTo returns the horizontal (2D) distance to o.
func (c Coord10) DistTo(o Coord10) Fixed {
	return Hypot(o.X-c.X, o.Y-c.Y)
}

// DistSqTo returns the squared horizontal distance. Use for comparisons.
func (c Coord10) DistSqTo(o Coord10) Fixed {
	dx, dy := o.X-c.X, o.Y-c.Y
	return dx.Mul(dx) + dy.Mul(dy)
}

// ClampTo limits the horizontal position to r. Height is clamped at zero
// from below only; nothing on a football pitch goes underground.
func (c Coord10) ClampTo(r Rect) Coord10 {
	c.X = Clamp(c.X, r.MinX, r.MaxX)
	c.Y = Clamp(c.Y, r.MinY, r.MaxY)
	if c.H < 0 {
		c.H = 0
	}
	return c
}

// Grounded reports whether the coordinate sits on the turf.
func (c Coord10) Grounded() bool { return c.H == 0 }
