package match

import "matchday/internal/pitch"

// Instructions are per-team tactical preferences applied between the
// tactical-goal layer and the ball-attraction layer of target calculation.
type Instructions struct {
	// Width: -2 very narrow .. +2 very wide.
	Width int8 `json:"width"`
	// Depth: -2 sit deep .. +2 push high.
	Depth int8 `json:"depth"`
	// LineHeight 0–100 positions the defensive line inside the own half.
	LineHeight uint8 `json:"lineHeight"`
	// OffsideTrap switches the defensive line source from the defender
	// average to the computed trap line.
	OffsideTrap bool `json:"offsideTrap"`
	// Pressing 0–100 scales how hard off-ball players hunt the carrier.
	Pressing uint8 `json:"pressing"`
}

// DefaultInstructions returns a balanced setup.
func DefaultInstructions() Instructions {
	return Instructions{LineHeight: 50, Pressing: 50}
}

// TeamTactics is the resolved tactical state for one side.
type TeamTactics struct {
	Formation    Formation
	Instructions Instructions
	// Coordination 0–100 weights how tightly the back line follows the
	// offside trap's computed line.
	Coordination uint8
}

// Formation holds per-slot roles and the two waypoint sets, authored in the
// attacks-right frame and mirrored through DirectionContext at use.
type Formation struct {
	Name      string
	Roles     [SlotsPerTeam]Role
	Defending [SlotsPerTeam]pitch.Coord10
	Attacking [SlotsPerTeam]pitch.Coord10
}

// fw is shorthand for authoring waypoints in meters.
func fw(x, y float64) pitch.Coord10 { return pitch.CoordFromMeters(x, y) }

// Formations is the formation catalog. Slot 0 is always the goalkeeper.
var Formations = map[string]Formation{
	"4-4-2": {
		Name:  "4-4-2",
		Roles: [SlotsPerTeam]Role{RoleGK, RoleDF, RoleDF, RoleDF, RoleDF, RoleMF, RoleMF, RoleMF, RoleMF, RoleFW, RoleFW},
		Defending: [SlotsPerTeam]pitch.Coord10{
			fw(5, 34),
			fw(20, 10), fw(18, 26), fw(18, 42), fw(20, 58),
			fw(35, 12), fw(32, 27), fw(32, 41), fw(35, 56),
			fw(45, 28), fw(45, 40),
		},
		Attacking: [SlotsPerTeam]pitch.Coord10{
			fw(12, 34),
			fw(45, 10), fw(40, 26), fw(40, 42), fw(45, 58),
			fw(70, 8), fw(62, 27), fw(62, 41), fw(70, 60),
			fw(85, 28), fw(85, 40),
		},
	},
	"4-3-3": {
		Name:  "4-3-3",
		Roles: [SlotsPerTeam]Role{RoleGK, RoleDF, RoleDF, RoleDF, RoleDF, RoleMF, RoleMF, RoleMF, RoleFW, RoleFW, RoleFW},
		Defending: [SlotsPerTeam]pitch.Coord10{
			fw(5, 34),
			fw(20, 10), fw(18, 26), fw(18, 42), fw(20, 58),
			fw(32, 22), fw(30, 34), fw(32, 46),
			fw(45, 12), fw(48, 34), fw(45, 56),
		},
		Attacking: [SlotsPerTeam]pitch.Coord10{
			fw(12, 34),
			fw(45, 10), fw(40, 26), fw(40, 42), fw(45, 58),
			fw(65, 22), fw(60, 34), fw(65, 46),
			fw(85, 12), fw(88, 34), fw(85, 56),
		},
	},
	"3-5-2": {
		Name:  "3-5-2",
		Roles: [SlotsPerTeam]Role{RoleGK, RoleDF, RoleDF, RoleDF, RoleMF, RoleMF, RoleMF, RoleMF, RoleMF, RoleFW, RoleFW},
		Defending: [SlotsPerTeam]pitch.Coord10{
			fw(5, 34),
			fw(18, 20), fw(16, 34), fw(18, 48),
			fw(30, 8), fw(32, 24), fw(28, 34), fw(32, 44), fw(30, 60),
			fw(45, 28), fw(45, 40),
		},
		Attacking: [SlotsPerTeam]pitch.Coord10{
			fw(12, 34),
			fw(40, 20), fw(38, 34), fw(40, 48),
			fw(68, 6), fw(62, 26), fw(58, 34), fw(62, 42), fw(68, 62),
			fw(85, 28), fw(85, 40),
		},
	},
	"4-2-3-1": {
		Name:  "4-2-3-1",
		Roles: [SlotsPerTeam]Role{RoleGK, RoleDF, RoleDF, RoleDF, RoleDF, RoleMF, RoleMF, RoleMF, RoleMF, RoleMF, RoleFW},
		Defending: [SlotsPerTeam]pitch.Coord10{
			fw(5, 34),
			fw(20, 10), fw(18, 26), fw(18, 42), fw(20, 58),
			fw(28, 28), fw(28, 40),
			fw(38, 12), fw(40, 34), fw(38, 56),
			fw(48, 34),
		},
		Attacking: [SlotsPerTeam]pitch.Coord10{
			fw(12, 34),
			fw(45, 10), fw(40, 26), fw(40, 42), fw(45, 58),
			fw(58, 28), fw(58, 40),
			fw(72, 10), fw(75, 34), fw(72, 58),
			fw(88, 34),
		},
	},
}

// DefaultFormation is used when a plan names an unknown formation.
const DefaultFormation = "4-4-2"

// FormationByName resolves a formation, falling back to the default for
// unknown names so a malformed plan degrades instead of crashing.
func FormationByName(name string) Formation {
	if f, ok := Formations[name]; ok {
		return f
	}
	return Formations[DefaultFormation]
}

// widthAdjust returns the lateral stretch factor for a width instruction,
// applied around the field midline.
func widthAdjust(width int8) pitch.Fixed {
	// -2 → 0.84, 0 → 1.0, +2 → 1.16
	return pitch.One + pitch.Fixed(int64(width)*82)
}

// depthAdjustM returns meters of forward push for a depth instruction.
func depthAdjustM(depth int8) pitch.Fixed {
	return pitch.FromInt(int(depth) * 3)
}
