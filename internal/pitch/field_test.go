package pitch

import (
	"math"
	"testing"
)

// TestAxisMapping pins the axis convention: X is the 105 m longitudinal axis
// (goal line to goal line), Y is the 68 m lateral axis. Everything downstream
// assumes this; if this test fails, nothing else is trustworthy.
func TestAxisMapping(t *testing.T) {
	if got := FieldRect.Length().Meters(); got != FieldLengthM {
		t.Errorf("field length along X = %v, want %v", got, FieldLengthM)
	}
	if got := FieldRect.Width().Meters(); got != FieldWidthM {
		t.Errorf("field width along Y = %v, want %v", got, FieldWidthM)
	}
	if LeftGoalCenter.X != 0 || RightGoalCenter.X != FieldLength {
		t.Error("goal centers must sit on the X extremes")
	}
	if LeftGoalCenter.Y != RightGoalCenter.Y {
		t.Error("goal centers must share the lateral midline")
	}
	if CenterSpot.X != FieldLength/2 {
		t.Errorf("center spot X = %v, want half length", CenterSpot.X.Meters())
	}
}

func TestMarginRectContainsFieldRect(t *testing.T) {
	corners := []Coord10{
		C(FieldRect.MinX, FieldRect.MinY),
		C(FieldRect.MinX, FieldRect.MaxY),
		C(FieldRect.MaxX, FieldRect.MinY),
		C(FieldRect.MaxX, FieldRect.MaxY),
	}
	for _, c := range corners {
		if !MarginRect.Contains(c) {
			t.Errorf("field corner %v outside margin rect", c)
		}
	}
}

func TestClampTo(t *testing.T) {
	tests := []struct {
		name string
		in   Coord10
	}{
		{"far left", CoordFromMeters(-50, 34)},
		{"far right", CoordFromMeters(500, 34)},
		{"below touchline", CoordFromMeters(52.5, -30)},
		{"beyond touchline", CoordFromMeters(52.5, 300)},
		{"both axes out", CoordFromMeters(-10, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.ClampTo(MarginRect)
			if !MarginRect.Contains(got) {
				t.Errorf("clamped position %+v still outside margin rect", got)
			}
		})
	}

	inside := CoordFromMeters(30, 30)
	if got := inside.ClampTo(MarginRect); got != inside {
		t.Errorf("in-bounds position moved by clamp: %+v", got)
	}
}

func TestClampToFloorsHeight(t *testing.T) {
	c := CoordFromMeters(10, 10).WithH(FromMeters(-1))
	if got := c.ClampTo(MarginRect); got.H != 0 {
		t.Errorf("negative height survived clamp: %v", got.H)
	}
}

func TestInGoalMouth(t *testing.T) {
	midY := FieldWidthM / 2
	tests := []struct {
		name string
		c    Coord10
		left bool
		want bool
	}{
		{"dead center left goal", CoordFromMeters(0, midY).WithH(FromMeters(1)), true, true},
		{"dead center right goal", CoordFromMeters(FieldLengthM, midY).WithH(FromMeters(1)), false, true},
		{"over the bar", CoordFromMeters(0, midY).WithH(FromMeters(3.0)), true, false},
		{"wide of the post", CoordFromMeters(0, midY+10), true, false},
		{"just inside the post", CoordFromMeters(0, midY+GoalWidthM/2-0.1), true, true},
		{"just outside the post", CoordFromMeters(0, midY+GoalWidthM/2+0.1), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InGoalMouth(tt.c, tt.left); got != tt.want {
				t.Errorf("InGoalMouth(%+v, left=%v) = %v, want %v", tt.c, tt.left, got, tt.want)
			}
		})
	}
}

func TestVecOps(t *testing.T) {
	v := VecFromMeters(3, 4)
	if got := v.Len().Meters(); math.Abs(got-5) > 0.05 {
		t.Errorf("Len = %v, want 5", got)
	}
	n := v.Normalize()
	if got := n.Len().Meters(); math.Abs(got-1) > 0.01 {
		t.Errorf("normalized length = %v, want 1", got)
	}
	clamped := v.ClampLen(FromMeters(2))
	if got := clamped.Len().Meters(); got > 2.02 {
		t.Errorf("clamped length = %v, want <= 2", got)
	}
	short := VecFromMeters(0.5, 0)
	if short.ClampLen(FromMeters(2)) != short {
		t.Error("ClampLen changed a vector already under the limit")
	}
}

func TestVecRotate(t *testing.T) {
	v := VecFromMeters(1, 0)
	r := v.Rotate(90)
	if math.Abs(r.X.Meters()) > 0.01 || math.Abs(r.Y.Meters()-1) > 0.01 {
		t.Errorf("Rotate(90) of (1,0) = (%v,%v), want (0,1)", r.X.Meters(), r.Y.Meters())
	}
	back := r.Rotate(-90)
	if math.Abs(back.X.Meters()-1) > 0.01 || math.Abs(back.Y.Meters()) > 0.01 {
		t.Errorf("Rotate back = (%v,%v), want (1,0)", back.X.Meters(), back.Y.Meters())
	}
}

func TestVecRotateZeroIsIdentity(t *testing.T) {
	v := VecFromMeters(12.25, -3.5)
	if got := v.Rotate(0); got != v {
		t.Errorf("Rotate(0) = %+v, want %+v", got, v)
	}
}
