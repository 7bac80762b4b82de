package pitch

// Field geometry. AXIS MAPPING (fixed, test-covered, never re-derived):
// X is the longitudinal axis, goal line to goal line (the 105 m length).
// Y is the lateral axis, touchline to touchline (the 68 m width).
// Origin is the corner where the left goal line meets the lower touchline.
const (
	FieldLengthM = 105.0 // along X
	FieldWidthM  = 68.0  // along Y

	// MarginM is the audit margin: positions may briefly sit up to this far
	// outside the lines (ball crossing for a throw-in, keeper collecting
	// behind the goal line) but never beyond.
	MarginM = 2.0

	// SafeInsetM keeps computed target positions off the touchlines.
	SafeInsetM = 0.5

	GoalWidthM  = 7.32
	GoalHeightM = 2.44

	PenaltyAreaDepthM = 16.5
	PenaltyAreaWidthM = 40.32
	GoalAreaDepthM    = 5.5
	GoalAreaWidthM    = 18.32

	CenterCircleRadiusM = 9.15
	PenaltySpotDepthM   = 11.0
)

// Precomputed fixed-point geometry. Package-level and immutable after init.
var (
	FieldLength = FromMeters(FieldLengthM)
	FieldWidth  = FromMeters(FieldWidthM)

	// FieldRect is the playing surface between the lines.
	FieldRect = RectFromMeters(0, 0, FieldLengthM, FieldWidthM)

	// MarginRect is the hard clamp: nothing is ever outside it, even
	// transiently between substeps.
	MarginRect = RectFromMeters(-MarginM, -MarginM, FieldLengthM+MarginM, FieldWidthM+MarginM)

	// SafeRect is where target positions land; players steer inside the
	// lines, the clamp is what stops them living on the touchline.
	SafeRect = FieldRect.Inset(FromMeters(SafeInsetM))

	CenterSpot = CoordFromMeters(FieldLengthM/2, FieldWidthM/2)

	// Goal centers on each goal line, at ground level.
	LeftGoalCenter  = CoordFromMeters(0, FieldWidthM/2)
	RightGoalCenter = CoordFromMeters(FieldLengthM, FieldWidthM/2)

	GoalHalfWidth = FromMeters(GoalWidthM / 2)
	GoalHeight    = FromMeters(GoalHeightM)

	// Penalty areas, one per goal.
	LeftPenaltyArea = RectFromMeters(
		0, (FieldWidthM-PenaltyAreaWidthM)/2,
		PenaltyAreaDepthM, (FieldWidthM+PenaltyAreaWidthM)/2)
	RightPenaltyArea = RectFromMeters(
		FieldLengthM-PenaltyAreaDepthM, (FieldWidthM-PenaltyAreaWidthM)/2,
		FieldLengthM, (FieldWidthM+PenaltyAreaWidthM)/2)

	LeftPenaltySpot  = CoordFromMeters(PenaltySpotDepthM, FieldWidthM/2)
	RightPenaltySpot = CoordFromMeters(FieldLengthM-PenaltySpotDepthM, FieldWidthM/2)
)

// InGoalMouth reports whether a ball at c crossing the goal line on side x=0
// (left=true) or x=length (left=false) is between the posts and under the bar.
// O(1) band checks, no angle math.
func InGoalMouth(c Coord10, left bool) bool {
	center := RightGoalCenter
	if left {
		center = LeftGoalCenter
	}
	if c.Y < center.Y-GoalHalfWidth || c.Y > center.Y+GoalHalfWidth {
		return false
	}
	return c.H <= GoalHeight
}
