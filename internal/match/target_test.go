package match

import (
	"testing"

	"matchday/internal/pitch"
)

func testTargetContext(ps []Player, ball pitch.Coord10) *targetContext {
	g := newPlayerGrid()
	g.Rebuild(ps)
	tc := &targetContext{
		players:   ps,
		grid:      g,
		ball:      ball,
		ballOwner: NoPlayer,
		dir: [2]DirectionContext{
			{IsHome: true, AttacksRight: true},
			{IsHome: false, AttacksRight: false},
		},
		chaser:      [2]int8{NoPlayer, NoPlayer},
		elapsedFrac: 0.3,
	}
	for t := range tc.tactics {
		tc.tactics[t] = TeamTactics{
			Formation:    FormationByName("4-4-2"),
			Instructions: DefaultInstructions(),
			Coordination: 60,
		}
		tc.defLine[t] = tc.dir[t].Advance(tc.dir[t].OwnGoalCenter(), pitch.FromMeters(25)).X
	}
	return tc
}

// TestPickChaser verifies the designated ball-winner is the nearest live
// outfielder, with the keeper eligible only inside the defended box.
func TestPickChaser(t *testing.T) {
	d := DirectionContext{IsHome: true, AttacksRight: true}

	t.Run("nearest outfielder", func(t *testing.T) {
		ps := contestPlayers()
		ball := pitch.CoordFromMeters(50, 30)
		ps[7].Pos = pitch.CoordFromMeters(48, 30)
		ps[3].Pos = pitch.CoordFromMeters(44, 30)
		if got := pickChaser(ps[:], TeamHome, d, ball); got != 7 {
			t.Errorf("chaser %d, want 7", got)
		}
	})

	t.Run("keeper skipped outside the box", func(t *testing.T) {
		ps := contestPlayers()
		ball := pitch.CoordFromMeters(50, 30)
		ps[0].Pos = pitch.CoordFromMeters(49, 30) // nearest, but the keeper
		ps[7].Pos = pitch.CoordFromMeters(46, 30)
		if got := pickChaser(ps[:], TeamHome, d, ball); got != 7 {
			t.Errorf("chaser %d, want 7", got)
		}
	})

	t.Run("keeper chases inside the box", func(t *testing.T) {
		ps := contestPlayers()
		ball := pitch.CoordFromMeters(8, 34)
		ps[0].Pos = pitch.CoordFromMeters(5, 34)
		if got := pickChaser(ps[:], TeamHome, d, ball); got != 0 {
			t.Errorf("chaser %d, want the keeper", got)
		}
	})

	t.Run("sent-off player skipped", func(t *testing.T) {
		ps := contestPlayers()
		ball := pitch.CoordFromMeters(50, 30)
		ps[7].Pos = pitch.CoordFromMeters(48, 30)
		ps[7].SentOff = true
		ps[3].Pos = pitch.CoordFromMeters(44, 30)
		if got := pickChaser(ps[:], TeamHome, d, ball); got != 3 {
			t.Errorf("chaser %d, want 3", got)
		}
	})
}

// TestComputeDefLine verifies the line follows the line-height instruction
// and snaps to the trap line under full coordination.
func TestComputeDefLine(t *testing.T) {
	d := DirectionContext{IsHome: true, AttacksRight: true}

	setup := func() ([TotalSlots]Player, TeamTactics) {
		ps := contestPlayers()
		for slot := 1; slot <= 4; slot++ {
			ps[slot].Role = RoleDF
			ps[slot].Pos = pitch.CoordFromMeters(20, float64(10+slot*12))
		}
		tac := TeamTactics{
			Formation:    FormationByName("4-4-2"),
			Instructions: DefaultInstructions(),
			Coordination: 60,
		}
		return ps, tac
	}

	t.Run("line height raises the line", func(t *testing.T) {
		ps, tac := setup()
		tac.Instructions.LineHeight = 0
		low := computeDefLine(ps[:], TeamHome, d, &tac)
		tac.Instructions.LineHeight = 100
		high := computeDefLine(ps[:], TeamHome, d, &tac)
		if high <= low {
			t.Errorf("line at height 100 (%v) should sit above height 0 (%v)", high, low)
		}
	})

	t.Run("no defenders falls back to the goal line", func(t *testing.T) {
		ps := contestPlayers() // everyone is a midfielder
		tac := TeamTactics{Formation: FormationByName("4-4-2"), Instructions: DefaultInstructions()}
		if got := computeDefLine(ps[:], TeamHome, d, &tac); got != d.OwnGoalCenter().X {
			t.Errorf("line %v, want own goal x %v", got, d.OwnGoalCenter().X)
		}
	})

	t.Run("full coordination snaps to the trap line", func(t *testing.T) {
		ps, tac := setup()
		ps[15].Pos = pitch.CoordFromMeters(14, 34) // deepest opposing attacker
		tac.Instructions.OffsideTrap = true
		tac.Coordination = 100
		got := computeDefLine(ps[:], TeamHome, d, &tac)
		want := computeTrapLine(ps[:], TeamHome, d)
		if got != want {
			t.Errorf("line %v, want trap line %v", got, want)
		}
		if want != pitch.FromMeters(14.5) {
			t.Errorf("trap line %v, want half a meter past the attacker", want)
		}
	})

	t.Run("trap line clamps at halfway", func(t *testing.T) {
		ps, _ := setup() // opposing attackers all parked deep in their own half
		got := computeTrapLine(ps[:], TeamHome, d)
		if want := pitch.FieldLength / 2; got > want {
			t.Errorf("trap line %v past halfway %v", got, want)
		}
	})
}

// TestMicrofocusPull verifies ball attraction scales with role and cuts off
// at the radius.
func TestMicrofocusPull(t *testing.T) {
	ps := contestPlayers()
	ball := pitch.CoordFromMeters(50, 30)
	tc := testTargetContext(ps[:], ball)
	goal := pitch.CoordFromMeters(30, 30)

	ps[9].Pos = pitch.CoordFromMeters(40, 30)
	ps[9].Role = RoleFW
	ps[2].Pos = pitch.CoordFromMeters(40, 30)
	ps[2].Role = RoleDF

	fwGoal := tc.layerMicrofocus(&ps[9], tc.dir[TeamHome], goal)
	dfGoal := tc.layerMicrofocus(&ps[2], tc.dir[TeamHome], goal)

	fwDist := fwGoal.DistSqTo(ball)
	dfDist := dfGoal.DistSqTo(ball)
	if fwDist >= dfDist {
		t.Errorf("forward pull (%v) should beat defender pull (%v)", fwDist, dfDist)
	}
	if dfDist >= goal.DistSqTo(ball) {
		t.Error("defender target should still move toward the ball")
	}

	ps[5].Pos = pitch.CoordFromMeters(20, 30) // 30 m out, past the radius
	ps[5].Role = RoleMF
	if got := tc.layerMicrofocus(&ps[5], tc.dir[TeamHome], goal); got != goal {
		t.Errorf("target %+v should be untouched outside the radius", got)
	}
}

// TestRetentionPullsToWaypoint verifies drifted players are pulled back to
// their defensive waypoint only when the other side has the ball.
func TestRetentionPullsToWaypoint(t *testing.T) {
	ps := contestPlayers()
	tc := testTargetContext(ps[:], pitch.CoordFromMeters(80, 34))
	tc.ballOwner = 15 // away possession

	ps[5].Pos = pitch.CoordFromMeters(60, 40)
	wp := tc.dir[TeamHome].Mirror(tc.tactics[TeamHome].Formation.Defending[5])
	goal := ps[5].Pos

	pulled := tc.layerRetention(&ps[5], tc.dir[TeamHome], goal)
	if pulled.DistSqTo(wp) >= goal.DistSqTo(wp) {
		t.Errorf("out of possession, %+v should move toward the waypoint %+v", pulled, wp)
	}

	tc.ballOwner = 3 // own possession: runs stay free
	if got := tc.layerRetention(&ps[5], tc.dir[TeamHome], goal); got != goal {
		t.Errorf("in possession, target %+v should be untouched", got)
	}
}

// TestSeparationPushesTeammatesApart verifies stacked teammates get pushed
// in opposite directions and opponents are ignored.
func TestSeparationPushesTeammatesApart(t *testing.T) {
	ps := contestPlayers()
	ps[5].Pos = pitch.CoordFromMeters(40, 30)
	ps[6].Pos = pitch.CoordFromMeters(40.5, 30)
	tc := testTargetContext(ps[:], pitch.CoordFromMeters(60, 34))

	goal5 := tc.layerSeparation(&ps[5], ps[5].Pos)
	goal6 := tc.layerSeparation(&ps[6], ps[6].Pos)
	if goal5.X >= ps[5].Pos.X {
		t.Errorf("left player should push left, got %v from %v", goal5.X, ps[5].Pos.X)
	}
	if goal6.X <= ps[6].Pos.X {
		t.Errorf("right player should push right, got %v from %v", goal6.X, ps[6].Pos.X)
	}

	ps[6].Pos = pitch.CoordFromMeters(90, 10) // teammate gone
	ps[15].Pos = pitch.CoordFromMeters(40.5, 30)
	tc.grid.Rebuild(ps[:])
	if got := tc.layerSeparation(&ps[5], ps[5].Pos); got != ps[5].Pos {
		t.Errorf("opponents should not trigger separation, target moved to %+v", got)
	}
}

// TestLineDiscipline verifies only out-of-possession defenders snap toward
// the shared line.
func TestLineDiscipline(t *testing.T) {
	ps := contestPlayers()
	tc := testTargetContext(ps[:], pitch.CoordFromMeters(70, 34))
	tc.defLine[TeamHome] = pitch.FromMeters(25)
	goal := pitch.CoordFromMeters(20, 30)

	ps[2].Role = RoleDF
	snapped := tc.layerLineDiscipline(&ps[2], tc.dir[TeamHome], goal)
	if snapped.X <= goal.X || snapped.X >= tc.defLine[TeamHome] {
		t.Errorf("defender x %v, want strictly between %v and the line %v", snapped.X, goal.X, tc.defLine[TeamHome])
	}
	if snapped.Y != goal.Y {
		t.Errorf("line discipline moved y to %v", snapped.Y)
	}

	ps[6].Role = RoleMF
	if got := tc.layerLineDiscipline(&ps[6], tc.dir[TeamHome], goal); got != goal {
		t.Errorf("midfielder target %+v should be untouched", got)
	}

	tc.ballOwner = 3 // own possession releases the line
	if got := tc.layerLineDiscipline(&ps[2], tc.dir[TeamHome], goal); got != goal {
		t.Errorf("in possession, defender target %+v should be untouched", got)
	}
}

// TestTargetForStaysOnField runs the full blend for all 22 players under an
// extreme setup and verifies every target lands in the playable area.
func TestTargetForStaysOnField(t *testing.T) {
	ps := contestPlayers()
	ps[9].Trait.GetsForward = true
	ps[9].Trait.HugsTouchline = true
	ps[13].Trait.StaysBack = true
	ps[4].Pos = pitch.CoordFromMeters(3, 3)
	ps[16].Pos = pitch.CoordFromMeters(3, 3.2)

	ball := pitch.CoordFromMeters(0.8, 0.8)
	tc := testTargetContext(ps[:], ball)
	tc.elapsedFrac = 0.95
	tc.goalDiff = [2]int{-1, 1}
	tc.keeper = [2]KeeperState{KeeperPreparingSave, KeeperComingOut}
	for i := range tc.tactics {
		tc.tactics[i].Instructions.Width = 2
		tc.tactics[i].Instructions.Depth = 2
		tc.tactics[i].Instructions.LineHeight = 100
		tc.tactics[i].Instructions.Pressing = 100
	}
	tc.chaser[TeamHome] = pickChaser(ps[:], TeamHome, tc.dir[TeamHome], ball)
	tc.chaser[TeamAway] = pickChaser(ps[:], TeamAway, tc.dir[TeamAway], ball)

	for i := range ps {
		got := tc.targetFor(&ps[i])
		if !pitch.SafeRect.Contains(got) {
			t.Errorf("slot %d target %+v leaves the safe area", i, got)
		}
	}
}
