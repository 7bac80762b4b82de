package match

import (
	"testing"

	"matchday/internal/pitch"
)

// TestKeeperStateTransitions walks the sweeping state machine through every
// transition the engine can trigger.
func TestKeeperStateTransitions(t *testing.T) {
	far := pitch.FromMeters(20)
	near := pitch.FromMeters(2)

	tests := []struct {
		name string
		cur  KeeperState
		in   keeperInputs
		want KeeperState
	}{
		{"attentive holds with no threat", KeeperAttentive,
			keeperInputs{ballDist: far, ballLoose: true}, KeeperAttentive},
		{"attentive ignores an owned ball in the box", KeeperAttentive,
			keeperInputs{ballDist: far, ballInDanger: true}, KeeperAttentive},
		{"shot pulls the keeper out", KeeperAttentive,
			keeperInputs{ballDist: far, shotInbound: true}, KeeperComingOut},
		{"loose ball in the box pulls the keeper out", KeeperAttentive,
			keeperInputs{ballDist: far, ballLoose: true, ballInDanger: true}, KeeperComingOut},
		{"loose ball at the feet pulls the keeper out", KeeperAttentive,
			keeperInputs{ballDist: near, ballLoose: true}, KeeperComingOut},
		{"winnable race pulls the keeper out", KeeperAttentive,
			keeperInputs{ballDist: far, ballLoose: true, winsRace: true}, KeeperComingOut},
		{"coming out reaches the ball", KeeperComingOut,
			keeperInputs{ballDist: near, ballLoose: true, ballInDanger: true}, KeeperPreparingSave},
		{"coming out aborts when danger passes", KeeperComingOut,
			keeperInputs{ballDist: far, ballLoose: true}, KeeperReturning},
		{"coming out keeps closing while the box is live", KeeperComingOut,
			keeperInputs{ballDist: far, ballLoose: true, ballInDanger: true}, KeeperComingOut},
		{"returning re-escalates on a new shot", KeeperReturning,
			keeperInputs{ballDist: far, shotInbound: true}, KeeperComingOut},
		{"returning reaches home", KeeperReturning,
			keeperInputs{ballDist: far, nearHome: true}, KeeperAttentive},
		{"returning keeps jogging back", KeeperReturning,
			keeperInputs{ballDist: far}, KeeperReturning},
		{"save stance releases when play moves on", KeeperPreparingSave,
			keeperInputs{ballDist: far, ballLoose: true}, KeeperReturning},
		{"save stance holds while the ball is close", KeeperPreparingSave,
			keeperInputs{ballDist: near, ballLoose: true, ballInDanger: true}, KeeperPreparingSave},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextKeeperState(tt.cur, tt.in); got != tt.want {
				t.Errorf("nextKeeperState(%v, %+v) = %v, want %v", tt.cur, tt.in, got, tt.want)
			}
		})
	}
}

// TestBlendWeightOrdering verifies the pull toward the ball strengthens with
// the urgency of the state.
func TestBlendWeightOrdering(t *testing.T) {
	a := KeeperAttentive.BlendWeight()
	r := KeeperReturning.BlendWeight()
	c := KeeperComingOut.BlendWeight()
	p := KeeperPreparingSave.BlendWeight()
	if !(a < r && r < c && c < p) {
		t.Fatalf("blend weights out of order: attentive %v returning %v coming_out %v preparing %v", a, r, c, p)
	}
}

// TestKeeperAnchorShade verifies the anchor sits just off the goal line and
// shades laterally toward the ball, clamped to the shade limit.
func TestKeeperAnchorShade(t *testing.T) {
	d := DirectionContext{IsHome: true, AttacksRight: true} // defends the left goal
	goal := d.OwnGoalCenter()

	tests := []struct {
		name  string
		ballY float64
		wantY float64
	}{
		{"ball high clamps the shade", 50, 36.5},
		{"ball low clamps the shade", 20, 31.5},
		{"ball near center shades a quarter", 35, 34.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchor := keeperAnchor(d, pitch.CoordFromMeters(30, tt.ballY))
			if anchor.X != goal.X+keeperAnchorDepth {
				t.Errorf("anchor depth %v, want %v", anchor.X, goal.X+keeperAnchorDepth)
			}
			if want := pitch.FromMeters(tt.wantY); anchor.Y != want {
				t.Errorf("anchor y %v, want %v", anchor.Y, want)
			}
		})
	}
}

// TestKeeperTargetBlend verifies the target moves toward the ball as the
// state escalates and never leaves the playable area.
func TestKeeperTargetBlend(t *testing.T) {
	d := DirectionContext{IsHome: true, AttacksRight: true}
	ball := pitch.CoordFromMeters(10, 34)

	calm := keeperTarget(d, KeeperAttentive, ball)
	urgent := keeperTarget(d, KeeperPreparingSave, ball)
	if calm.DistSqTo(ball) <= urgent.DistSqTo(ball) {
		t.Errorf("save stance should close on the ball: calm %+v urgent %+v", calm, urgent)
	}

	corner := pitch.CoordFromMeters(0.2, 0.2)
	for _, s := range []KeeperState{KeeperAttentive, KeeperComingOut, KeeperReturning, KeeperPreparingSave} {
		if got := keeperTarget(d, s, corner); !pitch.SafeRect.Contains(got) {
			t.Errorf("state %v target %+v leaves the safe area", s, got)
		}
	}
}

// TestKeeperWinsRace verifies the race estimate and the decision head start.
func TestKeeperWinsRace(t *testing.T) {
	mkPlayer := func(slot int8, x float64, decisions uint8) Player {
		p := Player{Slot: slot, Role: RoleMF, StaminaPPM: staminaFullPPM,
			Pos: pitch.CoordFromMeters(x, 34)}
		setAll(&p.Attr, 50)
		p.Attr.Decisions = decisions
		if slot == 0 {
			p.Role = RoleGK
		}
		return p
	}
	ball := pitch.CoordFromMeters(10, 34)

	tests := []struct {
		name      string
		keeperX   float64
		oppX      float64
		decisions uint8
		want      bool
	}{
		{"closer keeper wins", 8, 18, 50, true},
		{"closer opponent wins", 20, 12, 50, false},
		{"sharp keeper wins the dead heat", 5, 15, 100, true},
		{"hesitant keeper loses the dead heat", 5, 15, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := mkPlayer(0, tt.keeperX, tt.decisions)
			o := mkPlayer(15, tt.oppX, 50)
			if got := keeperWinsRace(&k, &o, ball); got != tt.want {
				t.Errorf("keeperWinsRace = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestShotToward verifies shot detection for the defended goal: speed gate,
// direction gate, and the lateral miss window at the goal line.
func TestShotToward(t *testing.T) {
	d := DirectionContext{IsHome: true, AttacksRight: true} // defends x = 0

	mkBall := func(x, y, vx, vy float64) Ball {
		b := NewBall(pitch.CoordFromMeters(x, y))
		b.Vel = pitch.Vec{X: pitch.FromMeters(vx), Y: pitch.FromMeters(vy)}
		return b
	}

	tests := []struct {
		name string
		ball Ball
		want bool
	}{
		{"straight drive at goal", mkBall(12, 34, -15, 0), true},
		{"angled drive converging on the frame", mkBall(12, 40, -12, -6), true},
		{"too slow to count", mkBall(12, 34, -8, 0), false},
		{"moving away from goal", mkBall(12, 34, 15, 0), false},
		{"hit well wide", mkBall(12, 60, -15, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.ball
			if got := shotToward(d, &b); got != tt.want {
				t.Errorf("shotToward = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("owned ball is never a shot", func(t *testing.T) {
		b := mkBall(12, 34, -15, 0)
		b.Owner = 7
		if shotToward(d, &b) {
			t.Error("a carried ball should not read as a shot")
		}
	})
}
