package match

import "matchday/internal/pitch"

// Tick cadence. Decisions run at 20 Hz; ball physics runs 5 substeps of
// 10 ms inside every decision tick so fast balls do not overshoot contests
// or the goal line.
const (
	TickHz          = 20
	SubstepsPerTick = 5
	// substepsPerSecond makes dt exact: integrating x += v/100 per substep
	// is the fixed-point form of v·dt with dt = 10 ms. No float dt exists.
	substepsPerSecond = TickHz * SubstepsPerTick
)

// ---------------------------------------------------------------------------
// BALL PHYSICS TUNING
// All values are fixed-point meters, m/s, or m/s² unless noted.
// ---------------------------------------------------------------------------
var (
	gravity = pitch.FromMeters(9.81)

	// Quadratic air drag factor: decel = dragK·v².
	dragK = pitch.FromFloat(0.0135)

	// Rolling resistance decel while grounded: μ·g with μ ≈ 0.07.
	rollingDecel = pitch.FromFloat(0.687)

	// Below this speed the ball is considered stopped: horizontal velocity
	// zeroed and spin reset.
	minVelocity = pitch.FromFloat(0.15)

	// Rebound vertical speeds below this end the bounce phase.
	minBounceVZ = pitch.FromFloat(0.8)

	// Energy kept by a bounce.
	restitution = pitch.FromFloat(0.65)

	// Horizontal speed kept through a bounce.
	bounceHorizLoss = pitch.FromFloat(0.85)

	// Magnus deflection accel = magnusK · |v| · spin, applied per component.
	magnusK = pitch.FromFloat(0.04)

	// Airborne spin decay per substep; bounces scrub much more.
	spinDecay       = pitch.FromFloat(0.995)
	bounceSpinDecay = pitch.FromFloat(0.7)

	// Lateral velocity kick a bounce takes from residual spin.
	bounceSpinKick = pitch.FromFloat(0.35)

	// Hard ceiling on ball speed; anything above is a degenerate launch
	// and gets clamped rather than propagated.
	maxBallSpeed = pitch.FromMeters(55)
)

const maxBounces = 6

// ballExit reports the ball leaving the field of play during a tick's
// substeps. Position is the first out-of-bounds substep position, which the
// engine converts into a goal, corner, throw-in, or goal kick.
type ballExit struct {
	crossed bool
	at      pitch.Coord10
	vel     pitch.Vec
}

// stepBallTick advances a loose ball through one decision tick's substeps.
// An owned ball never comes here; it rides with its owner.
//
// Per substep: drag and rolling resistance, Magnus deflection while airborne,
// position integration with the margin clamp, then the independent vertical
// integrator with the bounce/roll transition on ground contact. Integration
// stops early once the ball is stopped and grounded, or once it crosses out
// of the field of play.
func stepBallTick(b *Ball) ballExit {
	for i := 0; i < SubstepsPerTick; i++ {
		// A stopped, grounded ball does no further work this tick.
		if b.Vel.IsZero() && b.Pos.H == 0 && b.Motion == BallRolling {
			break
		}
		ballSubstep(b)
		if !pitch.FieldRect.ContainsVec(b.Pos.Vec2()) {
			return ballExit{crossed: true, at: b.Pos, vel: b.Vel}
		}
	}
	return ballExit{}
}

// ballSubstep advances one 10 ms physics step.
func ballSubstep(b *Ball) {
	b.Vel = b.Vel.ClampLen(maxBallSpeed)
	speed := b.Speed()

	// (a) Horizontal deceleration: quadratic drag always, rolling
	// resistance only on the turf. Stop-and-reset below the threshold.
	if speed > 0 {
		decel := dragK.Mul(speed).Mul(speed)
		if b.Pos.H == 0 {
			decel += rollingDecel
		}
		newSpeed := speed - decel/substepsPerSecond
		if newSpeed <= minVelocity {
			b.Vel = pitch.Vec{}
			b.Spin = pitch.Vec{}
			b.CurveFactor = 0
			speed = 0
		} else {
			b.Vel = b.Vel.Scale(newSpeed.Div(speed))
			speed = newSpeed
		}
	}

	// (b) Magnus deflection while off the turf.
	if b.Pos.H > 0 && !b.Spin.IsZero() {
		lat := magnusK.Mul(speed)
		b.Vel.X += b.Spin.X.Mul(lat) / substepsPerSecond
		b.Vel.Y += b.Spin.Y.Mul(lat) / substepsPerSecond
		b.Spin = b.Spin.Scale(spinDecay)
	}

	// (c) Position integration, clamped every substep. The clamp is the
	// bounds invariant; nothing later may see an out-of-margin ball.
	b.Pos.X += b.Vel.X / substepsPerSecond
	b.Pos.Y += b.Vel.Y / substepsPerSecond
	b.Pos = b.Pos.ClampTo(pitch.MarginRect)

	// (d) Independent vertical integrator.
	if b.Motion == BallAirborne || b.Motion == BallBouncing || b.Pos.H > 0 {
		b.VZ -= gravity / substepsPerSecond
		b.Pos.H += b.VZ / substepsPerSecond
		if b.Pos.H <= 0 && b.VZ < 0 {
			land(b)
		}
		if b.Pos.H < 0 {
			b.Pos.H = 0
		}
	}
}

// land runs the bounce/roll transition for a ground contact.
func land(b *Ball) {
	b.Pos.H = 0
	rebound := (-b.VZ).Mul(restitution)
	next := landingMotion(rebound, b.BounceCount)
	switch next {
	case BallRolling:
		b.VZ = 0
		b.BounceCount = 0
	case BallBouncing:
		b.VZ = rebound
		b.BounceCount++
		b.Vel = b.Vel.Scale(bounceHorizLoss)
		// Residual spin grabs on contact and deflects the bounce.
		if !b.Spin.IsZero() {
			b.Vel.X += b.Spin.X.Mul(bounceSpinKick)
			b.Vel.Y += b.Spin.Y.Mul(bounceSpinKick)
			b.Spin = b.Spin.Scale(bounceSpinDecay)
		}
	}
	b.Motion = next
}

// landingMotion is the single bounce/roll transition function: a rebound too
// weak to matter, or too many bounces already, settles the ball into Rolling.
func landingMotion(rebound pitch.Fixed, bounces uint8) BallMotion {
	if rebound < minBounceVZ || bounces >= maxBounces {
		return BallRolling
	}
	return BallBouncing
}
