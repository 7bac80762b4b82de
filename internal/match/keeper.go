package match

import "matchday/internal/pitch"

// KeeperState is the goalkeeper sweeping state.
type KeeperState uint8

const (
	KeeperAttentive KeeperState = iota
	KeeperComingOut
	KeeperReturning
	KeeperPreparingSave
)

func (s KeeperState) String() string {
	switch s {
	case KeeperComingOut:
		return "coming_out"
	case KeeperReturning:
		return "returning"
	case KeeperPreparingSave:
		return "preparing_save"
	default:
		return "attentive"
	}
}

// BlendWeight gates how strongly the target calculator pulls the keeper off
// the goal anchor toward the computed rushing position.
func (s KeeperState) BlendWeight() pitch.Fixed {
	switch s {
	case KeeperComingOut:
		return pitch.FromFloat(0.7)
	case KeeperReturning:
		return pitch.FromFloat(0.5)
	case KeeperPreparingSave:
		return pitch.FromFloat(0.9)
	default:
		return pitch.FromFloat(0.3)
	}
}

// ---------------------------------------------------------------------------
// KEEPER TUNING
// ---------------------------------------------------------------------------
var (
	// Ball this close while loose: claim it.
	keeperVeryClose = pitch.FromFloat(2.5)

	// Inbound ball faster than this toward the goal counts as a shot.
	shotSpeedThreshold = pitch.FromMeters(12)

	// Back "home" when within this radius of the goal anchor.
	keeperHomeRadius = pitch.FromFloat(1.5)

	// The anchor sits this far off the goal line.
	keeperAnchorDepth = pitch.FromFloat(1.5)

	// How far laterally the anchor shades toward the ball.
	keeperAnchorShade = pitch.FromFloat(2.5)

	// Danger zone is the penalty area grown by this slack.
	dangerZoneSlack = pitch.FromMeters(2)
)

// keeperInputs is everything the transition function looks at for one tick.
// Computed by the engine; the transition function itself touches no state.
type keeperInputs struct {
	ballDist     pitch.Fixed
	ballLoose    bool
	ballInDanger bool // loose ball inside the danger zone
	shotInbound  bool // ball moving at the goal above the speed threshold
	winsRace     bool // keeper beats the nearest opponent to a loose ball
	nearHome     bool // keeper within home radius of the anchor
}

// threat reports whether any coming-out trigger is live.
func (in keeperInputs) threat() bool {
	if in.shotInbound {
		return true
	}
	if !in.ballLoose {
		return false
	}
	return in.ballDist <= keeperVeryClose || in.ballInDanger || in.winsRace
}

// nextKeeperState is the single sweeping transition function.
func nextKeeperState(cur KeeperState, in keeperInputs) KeeperState {
	switch cur {
	case KeeperAttentive:
		if in.threat() {
			return KeeperComingOut
		}
		return KeeperAttentive

	case KeeperComingOut:
		if in.ballDist <= keeperVeryClose {
			return KeeperPreparingSave
		}
		if !in.ballInDanger && !in.shotInbound {
			return KeeperReturning
		}
		return KeeperComingOut

	case KeeperReturning:
		// A new threat mid-return re-escalates before reaching home.
		if in.threat() {
			return KeeperComingOut
		}
		if in.nearHome {
			return KeeperAttentive
		}
		return KeeperReturning

	case KeeperPreparingSave:
		if !in.ballInDanger && !in.shotInbound && in.ballDist > keeperVeryClose {
			return KeeperReturning
		}
		return KeeperPreparingSave
	}
	return KeeperAttentive
}

// dangerZone returns the defended penalty area plus slack for a team.
func dangerZone(d DirectionContext) pitch.Rect {
	area := pitch.RightPenaltyArea
	if d.OwnGoalCenter().X == 0 {
		area = pitch.LeftPenaltyArea
	}
	return area.Inset(-dangerZoneSlack)
}

// keeperAnchor is the keeper's reference point: just off the goal line,
// shaded laterally toward the ball to cover the angle.
func keeperAnchor(d DirectionContext, ball pitch.Coord10) pitch.Coord10 {
	goal := d.OwnGoalCenter()
	anchor := d.Advance(goal, keeperAnchorDepth)
	shade := (ball.Y - goal.Y).Mul(pitch.FromFloat(0.25))
	anchor.Y = goal.Y + pitch.Clamp(shade, -keeperAnchorShade, keeperAnchorShade)
	return anchor
}

// keeperTarget blends the anchor toward the ball by the state's weight.
func keeperTarget(d DirectionContext, state KeeperState, ball pitch.Coord10) pitch.Coord10 {
	anchor := keeperAnchor(d, ball)
	w := state.BlendWeight()
	out := pitch.Coord10{
		X: pitch.Lerp(anchor.X, ball.X, w),
		Y: pitch.Lerp(anchor.Y, ball.Y, w),
	}
	return out.ClampTo(pitch.SafeRect)
}

// keeperWinsRace runs the 1v1 race estimate: time = distance / speed for
// both parties, with the keeper's time discounted by decision skill. A
// smarter keeper commits earlier and still gets there.
func keeperWinsRace(keeper, opponent *Player, ball pitch.Coord10) bool {
	kSpeed := keeper.SprintSpeed()
	oSpeed := opponent.SprintSpeed()
	if kSpeed == 0 {
		return false
	}
	if oSpeed == 0 {
		return true
	}
	kTime := keeper.Pos.DistTo(ball).Div(kSpeed)
	oTime := opponent.Pos.DistTo(ball).Div(oSpeed)
	// Up to a 20% head start at 100 decisions.
	discount := pitch.One - pitch.Fixed(int64(keeper.Attr.Decisions)*205/100)
	kTime = kTime.Mul(pitch.Clamp(discount, pitch.FromFloat(0.8), pitch.One))
	return kTime < oTime
}

// shotToward reports whether a loose ball is heading at this team's goal
// above the shot speed threshold.
func shotToward(d DirectionContext, b *Ball) bool {
	if !b.Loose() || b.Speed() < shotSpeedThreshold {
		return false
	}
	goal := d.OwnGoalCenter()
	toGoal := b.Pos.To(goal)
	// Heading at the goal means velocity projects positively on the goal
	// direction and the lateral miss at the goal line stays near the frame.
	if b.Vel.Dot(toGoal) <= 0 {
		return false
	}
	dx := goal.X - b.Pos.X
	if dx == 0 {
		return true
	}
	if b.Vel.X == 0 {
		return false
	}
	t := dx.Div(b.Vel.X)
	if t < 0 {
		return false
	}
	yAtLine := b.Pos.Y + b.Vel.Y.Mul(t)
	miss := (yAtLine - goal.Y).Abs()
	return miss <= pitch.GoalHalfWidth+pitch.FromMeters(3)
}
