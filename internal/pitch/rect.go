package pitch

// Rect is an axis-aligned clamp rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY Fixed
}

// RectFromMeters builds a Rect from float64 meter bounds.
func RectFromMeters(minX, minY, maxX, maxY float64) Rect {
	return Rect{FromFloat(minX), FromFloat(minY), FromFloat(maxX), FromFloat(maxY)}
}

// Contains reports whether the horizontal position of c lies inside r
// (inclusive on all edges).
func (r Rect) Contains(c Coord10) bool {
	return c.X >= r.MinX && c.X <= r.MaxX && c.Y >= r.MinY && c.Y <= r.MaxY
}

// ContainsVec reports whether the point v lies inside r.
func (r Rect) ContainsVec(v Vec) bool {
	return v.X >= r.MinX && v.X <= r.MaxX && v.Y >= r.MinY && v.Y <= r.MaxY
}

// Inset shrinks the rectangle by d on every side.
func (r Rect) Inset(d Fixed) Rect {
	return Rect{r.MinX + d, r.MinY + d, r.MaxX - d, r.MaxY - d}
}

// Width returns the Y extent (touchline to touchline for the field rect).
func (r Rect) Width() Fixed { return r.MaxY - r.MinY }

// Length returns the X extent (goal line to goal line for the field rect).
func (r Rect) Length() Fixed { return r.MaxX - r.MinX }

// Center returns the rectangle's center point at ground level.
func (r Rect) Center() Coord10 {
	return C(r.MinX+(r.MaxX-r.MinX)/2, r.MinY+(r.MaxY-r.MinY)/2)
}
