package match

import (
	"math"

	"matchday/internal/pitch"
)

// ---------------------------------------------------------------------------
// TARGET POSITION TUNING
// The 5-layer blend recomputes every player's desired position from scratch
// each tick; nothing here persists between calls.
// ---------------------------------------------------------------------------
var (
	// Microfocus: attraction reaches this far from the ball.
	microfocusRadius = pitch.FromMeters(22)

	// Role peaks for the attraction curve at distance zero.
	microfocusPeak = map[Role]float64{
		RoleGK: 0.05,
		RoleDF: 0.35,
		RoleMF: 0.60,
		RoleFW: 0.75,
	}

	// Boost when the ball is ahead of an attacking player.
	ballAheadBoost = 1.3

	// Formation retention ramps in over this much drift and tops out.
	retentionRange = pitch.FromMeters(20)
	retentionMax   = pitch.FromFloat(0.45)

	// Teammate separation: push apart inside this radius, single pass.
	separationRadius = pitch.FromMeters(4)
	separationMax    = pitch.FromMeters(3)

	// How hard defenders snap to the shared line.
	lineDiscipline = pitch.FromFloat(0.6)

	// Offside trap step past the lead attacker, toward halfway.
	trapStep = pitch.FromFloat(0.5)

	// Late-game pushes.
	lateGameFrac     = 0.8
	veryLateGameFrac = 0.9
	losingPushM      = 6
	winningSitM      = 5

	// Trait nudges.
	traitDepthM     = 3
	traitWidthBoost = pitch.FromFloat(1.15)
)

// targetContext is the shared per-tick input to all 22 target computations.
// The engine builds one per tick; layers read it, never write it.
type targetContext struct {
	players []Player
	grid    *playerGrid

	ball      pitch.Coord10
	ballVel   pitch.Vec
	ballOwner int8

	dir     [2]DirectionContext
	tactics [2]TeamTactics
	keeper  [2]KeeperState

	// chaser is the designated ball-winner per team this tick.
	chaser [2]int8

	// defLine is each team's shared defensive line (actual X), already
	// blended between the defender average, the line-height instruction,
	// and the offside trap per coordination.
	defLine [2]pitch.Fixed

	// goalDiff is from each team's perspective (positive = leading).
	goalDiff [2]int

	// elapsedFrac is match progress 0.0–1.0 as float for curve shaping.
	elapsedFrac float64
}

// hasPossession reports whether the team's player controls the ball. A
// loose ball means nobody does, and both teams keep formation discipline.
func (tc *targetContext) hasPossession(t Team) bool {
	return tc.ballOwner != NoPlayer && SlotTeam(tc.ballOwner) == t
}

// targetFor runs the full 5-layer blend for one player.
func (tc *targetContext) targetFor(p *Player) pitch.Coord10 {
	ti := int(p.Team())
	d := tc.dir[ti]

	// Goalkeepers follow the sweeping state machine; the blend weight is
	// their version of layers 1–2.
	if p.IsKeeper() {
		goal := keeperTarget(d, tc.keeper[ti], tc.ball)
		goal = tc.layerSeparation(p, goal)
		return goal.ClampTo(pitch.SafeRect)
	}

	goal := tc.layerTactical(p, d)
	goal = tc.applyAdjustments(p, d, goal)
	goal = tc.layerMicrofocus(p, d, goal)
	goal = tc.layerRetention(p, d, goal)
	goal = tc.layerSeparation(p, goal)
	goal = tc.layerLineDiscipline(p, d, goal)
	return goal.ClampTo(pitch.SafeRect)
}

// layerTactical resolves the role's base goal: chase the ball if designated,
// otherwise hold the formation waypoint for the current phase.
func (tc *targetContext) layerTactical(p *Player, d DirectionContext) pitch.Coord10 {
	if tc.chaser[p.Team()] == p.Slot {
		// The designated winner hunts the ball itself.
		return tc.ball
	}
	f := &tc.tactics[p.Team()].Formation
	local := int(p.Slot) % SlotsPerTeam
	wp := f.Defending[local]
	if tc.hasPossession(p.Team()) {
		wp = f.Attacking[local]
	}
	return d.Mirror(wp)
}

// applyAdjustments folds in team instructions, traits, and late-game score
// pressure between the tactical layer and the attraction layer.
func (tc *targetContext) applyAdjustments(p *Player, d DirectionContext, goal pitch.Coord10) pitch.Coord10 {
	ins := tc.tactics[p.Team()].Instructions
	midY := pitch.CenterSpot.Y

	// Width stretches laterally around the midline.
	stretch := widthAdjust(ins.Width)
	if p.Trait.HugsTouchline {
		stretch = stretch.Mul(traitWidthBoost)
	}
	goal.Y = midY + (goal.Y - midY).Mul(stretch)

	// Depth pushes the whole shape up or back.
	goal = d.Advance(goal, depthAdjustM(ins.Depth))
	if p.Trait.GetsForward {
		goal = d.Advance(goal, pitch.FromInt(traitDepthM))
	}
	if p.Trait.StaysBack {
		goal = d.Advance(goal, -pitch.FromInt(traitDepthM))
	}

	// Late-game urgency: chase the game when losing, kill it when ahead.
	diff := tc.goalDiff[p.Team()]
	if tc.elapsedFrac >= lateGameFrac && diff < 0 {
		goal = d.Advance(goal, pitch.FromInt(losingPushM))
	} else if tc.elapsedFrac >= veryLateGameFrac && diff > 0 {
		goal = d.Advance(goal, -pitch.FromInt(winningSitM))
	}
	return goal
}

// layerMicrofocus pulls the target toward the ball on a rectified-sine
// curve: zero at the radius, role-dependent peak at the ball.
func (tc *targetContext) layerMicrofocus(p *Player, d DirectionContext, goal pitch.Coord10) pitch.Coord10 {
	dist := p.Pos.DistTo(tc.ball)
	if dist >= microfocusRadius {
		return goal
	}
	peak := microfocusPeak[p.Role]
	if (p.Role == RoleFW || p.Role == RoleMF) && d.Ahead(p.Pos, tc.ball) {
		peak *= ballAheadBoost
	}
	// Pressing appetite scales the whole curve.
	peak *= 0.7 + 0.6*float64(tc.tactics[p.Team()].Instructions.Pressing)/100

	t := 1 - dist.Meters()/microfocusRadius.Meters()
	w := peak * math.Sin(math.Pi/2*t)
	if w <= 0 {
		return goal
	}
	wf := pitch.FromFloat(clampFloat(w, 0, 0.95))
	return pitch.Coord10{
		X: pitch.Lerp(goal.X, tc.ball.X, wf),
		Y: pitch.Lerp(goal.Y, tc.ball.Y, wf),
	}
}

// layerRetention pulls out-of-possession players back toward the defensive
// waypoint, proportional to drift. No pull while attacking: runs stay free.
func (tc *targetContext) layerRetention(p *Player, d DirectionContext, goal pitch.Coord10) pitch.Coord10 {
	if tc.hasPossession(p.Team()) {
		return goal
	}
	wp := d.Mirror(tc.tactics[p.Team()].Formation.Defending[int(p.Slot)%SlotsPerTeam])
	drift := p.Pos.DistTo(wp)
	w := pitch.Min(drift.Div(retentionRange), pitch.One).Mul(retentionMax)
	if w == 0 {
		return goal
	}
	return pitch.Coord10{
		X: pitch.Lerp(goal.X, wp.X, w),
		Y: pitch.Lerp(goal.Y, wp.Y, w),
	}
}

// layerSeparation pushes overlapping teammates apart: one bounded pass over
// the neighbors, proportional to overlap, never iterated to convergence.
func (tc *targetContext) layerSeparation(p *Player, goal pitch.Coord10) pitch.Coord10 {
	var scratch [TotalSlots]int8
	nearby := tc.grid.QueryRadius(tc.players, p.Pos, separationRadius, scratch[:0])
	var push pitch.Vec
	for _, slot := range nearby {
		if slot == p.Slot || SlotTeam(slot) != p.Team() {
			continue
		}
		mate := &tc.players[slot]
		away := mate.Pos.To(p.Pos)
		dist := away.Len()
		if dist >= separationRadius {
			continue
		}
		if dist == 0 {
			// Perfectly stacked: split by slot order so the push is
			// deterministic.
			if p.Slot > slot {
				away = pitch.Vec{X: pitch.One}
			} else {
				away = pitch.Vec{X: -pitch.One}
			}
			dist = pitch.One
		}
		overlap := separationRadius - dist
		push = push.Add(away.WithLen(overlap.Mul(pitch.Half)))
	}
	if push.IsZero() {
		return goal
	}
	return goal.Add(push.ClampLen(separationMax))
}

// layerLineDiscipline snaps out-of-possession defenders onto the shared
// defensive line computed for the tick.
func (tc *targetContext) layerLineDiscipline(p *Player, d DirectionContext, goal pitch.Coord10) pitch.Coord10 {
	if p.Role != RoleDF || tc.hasPossession(p.Team()) {
		return goal
	}
	line := tc.defLine[p.Team()]
	goal.X = pitch.Lerp(goal.X, line, lineDiscipline)
	return goal
}

// ---------------------------------------------------------------------------
// Per-tick precomputation
// ---------------------------------------------------------------------------

// computeDefLine derives one team's shared defensive line for the tick:
// the defender average, biased by the line-height instruction, then blended
// toward the offside-trap line by coordination when the trap is on.
func computeDefLine(players []Player, team Team, d DirectionContext, tac *TeamTactics) pitch.Fixed {
	var sum pitch.Fixed
	n := 0
	for i := range players {
		p := &players[i]
		if p.Team() != team || p.Role != RoleDF || !p.Active() {
			continue
		}
		sum += p.Pos.X
		n++
	}
	if n == 0 {
		return d.OwnGoalCenter().X
	}
	line := sum / pitch.Fixed(n)

	// Line-height preference: 0 sits on the penalty spot depth, 100 pushes
	// to ten meters shy of halfway.
	lowX := d.Advance(d.OwnGoalCenter(), pitch.FromMeters(pitch.PenaltySpotDepthM)).X
	highX := d.Advance(d.OwnGoalCenter(), pitch.FromMeters(pitch.FieldLengthM/2-10)).X
	pref := pitch.Lerp(lowX, highX, pitch.Fixed(int64(tac.Instructions.LineHeight)*pitch.Scale/100))
	line = pitch.Lerp(line, pref, pitch.FromFloat(0.3))

	if tac.Instructions.OffsideTrap {
		trap := computeTrapLine(players, team, d)
		coord := pitch.Fixed(int64(tac.Coordination) * pitch.Scale / 100)
		line = pitch.Lerp(line, trap, coord)
	}
	return line
}

// computeTrapLine finds the offside trap's target line: half a meter goalward
// of halfway from the deepest opposing attacker, clamped between the penalty
// spot depth and the halfway line.
func computeTrapLine(players []Player, team Team, d DirectionContext) pitch.Fixed {
	ownGoalX := d.OwnGoalCenter().X
	// Deepest opponent attacker = smallest distance to our goal line.
	bestDepth := pitch.FieldLength
	found := false
	for i := range players {
		p := &players[i]
		if p.Team() == team || !p.Active() || p.Role == RoleGK || p.Role == RoleDF {
			continue
		}
		depth := (p.Pos.X - ownGoalX).Abs()
		if depth < bestDepth {
			bestDepth = depth
			found = true
		}
	}
	if !found {
		bestDepth = pitch.FromMeters(30)
	}
	// Step past the attacker, toward halfway.
	lineDepth := bestDepth + trapStep
	lineDepth = pitch.Clamp(lineDepth,
		pitch.FromMeters(pitch.PenaltySpotDepthM),
		pitch.FieldLength/2)
	return d.Advance(d.OwnGoalCenter(), lineDepth).X
}

// pickChaser designates each team's ball-winner: the nearest active
// outfielder, with the keeper eligible only when the ball sits inside the
// defended danger zone.
func pickChaser(players []Player, team Team, d DirectionContext, ball pitch.Coord10) int8 {
	danger := dangerZone(d).Contains(ball)
	best := NoPlayer
	bestDist := pitch.Fixed(1 << 40)
	for i := range players {
		p := &players[i]
		if p.Team() != team || !p.Active() {
			continue
		}
		if p.IsKeeper() && !danger {
			continue
		}
		dist := p.Pos.DistTo(ball)
		if dist < bestDist {
			bestDist = dist
			best = p.Slot
		}
	}
	return best
}
