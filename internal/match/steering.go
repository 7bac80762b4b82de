package match

import "matchday/internal/pitch"

// Steering primitives. Each returns a desired velocity; MoveStep turns
// desired velocity into an accel-limited, stamina-capped position update.
// Shared by the target-position layer and the goalkeeper logic.

// steeringTuning groups the shared shaping distances.
var steeringTuning = struct {
	// Inside slowRadius an arriving player decelerates toward the point.
	slowRadius pitch.Fixed
	// Inside deadZone the player stops chasing tiny offsets.
	deadZone pitch.Fixed
	// Pursuit leads the target by up to this many seconds of its velocity.
	maxLeadS pitch.Fixed
}{
	slowRadius: pitch.FromMeters(3.0),
	deadZone:   pitch.FromMeters(0.25),
	maxLeadS:   pitch.FromFloat(0.6),
}

// Seek returns full speed straight at the target.
func Seek(pos, target pitch.Coord10, maxSpeed pitch.Fixed) pitch.Vec {
	to := pos.To(target)
	if to.LenSq() == 0 {
		return pitch.Vec{}
	}
	return to.WithLen(maxSpeed)
}

// Arrive seeks the target but decelerates inside the slow radius and stops
// inside the dead zone, so players settle instead of orbiting their spot.
func Arrive(pos, target pitch.Coord10, maxSpeed pitch.Fixed) pitch.Vec {
	to := pos.To(target)
	dist := to.Len()
	if dist <= steeringTuning.deadZone {
		return pitch.Vec{}
	}
	speed := maxSpeed
	if dist < steeringTuning.slowRadius {
		speed = maxSpeed.Mul(dist.Div(steeringTuning.slowRadius))
	}
	return to.WithLen(speed)
}

// Pursue seeks ahead of a moving target, leading it by its velocity over a
// time horizon proportional to distance (capped). Used to chase a moving
// ball or an opponent on the run.
func Pursue(pos pitch.Coord10, target pitch.Coord10, targetVel pitch.Vec, maxSpeed pitch.Fixed) pitch.Vec {
	dist := pos.DistTo(target)
	lead := pitch.Fixed(0)
	if maxSpeed > 0 {
		lead = pitch.Min(dist.Div(maxSpeed), steeringTuning.maxLeadS)
	}
	predicted := target.Add(targetVel.Scale(lead))
	return Seek(pos, predicted.ClampTo(pitch.MarginRect), maxSpeed)
}

// Evade runs full speed away from a threat's predicted position.
func Evade(pos pitch.Coord10, threat pitch.Coord10, threatVel pitch.Vec, maxSpeed pitch.Fixed) pitch.Vec {
	predicted := threat.Add(threatVel.Scale(steeringTuning.maxLeadS))
	away := predicted.To(pos)
	if away.LenSq() == 0 {
		return pitch.Vec{}
	}
	return away.WithLen(maxSpeed)
}

// MoveStep applies one decision tick of movement toward a desired velocity:
// velocity change limited by the player's acceleration, speed capped by
// stamina-scaled sprint speed, position integrated and clamped. Returns
// nothing; tallies update in place.
func MoveStep(p *Player, desired pitch.Vec) {
	maxSpeed := p.SprintSpeed()
	desired = desired.ClampLen(maxSpeed)

	// Accel limit is per second; one tick gets its share.
	dv := desired.Sub(p.Vel)
	dvMax := p.AccelLimit() / TickHz
	p.Vel = p.Vel.Add(dv.ClampLen(dvMax)).ClampLen(maxSpeed)

	step := pitch.Vec{X: p.Vel.X / TickHz, Y: p.Vel.Y / TickHz}
	before := p.Pos
	p.Pos = p.Pos.Add(step).ClampTo(pitch.MarginRect)
	p.recordMovement(before.DistTo(p.Pos))
	p.updateStamina()
}
