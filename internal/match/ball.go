package match

import "matchday/internal/pitch"

// BallMotion is the ball's flight state. Rolling is the terminal state until
// a new kick re-launches the ball.
type BallMotion uint8

const (
	BallRolling BallMotion = iota
	BallAirborne
	BallBouncing
)

func (m BallMotion) String() string {
	switch m {
	case BallAirborne:
		return "airborne"
	case BallBouncing:
		return "bouncing"
	default:
		return "rolling"
	}
}

// Ball carries all ball state. Position, velocity, and spin are fixed-point;
// the physics substep loop is the only writer during open play, ownership
// transfers are the only discontinuous jumps.
type Ball struct {
	Pos pitch.Coord10 `json:"pos"`
	// Vel is the horizontal velocity in units/s.
	Vel pitch.Vec `json:"vel"`
	// VZ is the vertical velocity in units/s, positive up.
	VZ pitch.Fixed `json:"vz"`
	// Spin is the lateral spin vector driving Magnus deflection.
	Spin pitch.Vec `json:"spin"`

	Motion      BallMotion `json:"motion"`
	BounceCount uint8      `json:"bounceCount"`

	// CurveFactor scales how much of the kicker's technique became spin.
	CurveFactor pitch.Fixed `json:"curveFactor"`

	Owner     int8 `json:"owner"`     // NoPlayer when loose
	PrevOwner int8 `json:"prevOwner"` // NoPlayer before first touch

	// sweptFrom is the ball's position before this tick's flight. The
	// ownership resolver checks the whole swept path, not just the end
	// point: a fast ball covers several times the ownership radius in one
	// tick and would otherwise tunnel straight past a waiting receiver.
	sweptFrom pitch.Coord10
}

// NewBall returns a stationary ball at the given spot, unowned.
func NewBall(at pitch.Coord10) Ball {
	return Ball{Pos: at, sweptFrom: at, Owner: NoPlayer, PrevOwner: NoPlayer}
}

// Loose reports whether no player currently controls the ball.
func (b *Ball) Loose() bool { return b.Owner == NoPlayer }

// Speed returns the horizontal speed in units/s.
func (b *Ball) Speed() pitch.Fixed { return b.Vel.Len() }

// LastTouch returns the owning slot, or the previous owner while loose.
// NoPlayer only before anyone has touched the ball.
func (b *Ball) LastTouch() int8 {
	if b.Owner != NoPlayer {
		return b.Owner
	}
	return b.PrevOwner
}

// Airborne reports whether the ball is off the turf.
func (b *Ball) Airborne() bool { return b.Motion != BallRolling || b.Pos.H > 0 }

// Launch puts the ball into flight (or a driven roll) from a kick. The
// caller has already applied execution error to vel/vz/spin. Ownership is
// released; a launched ball belongs to nobody until the resolver says so.
func (b *Ball) Launch(vel pitch.Vec, vz pitch.Fixed, spin pitch.Vec) {
	b.Vel = vel
	b.VZ = vz
	b.Spin = spin
	b.BounceCount = 0
	if vz > 0 {
		b.Motion = BallAirborne
	} else {
		b.VZ = 0
		b.Motion = BallRolling
	}
	b.PrevOwner = b.Owner
	b.Owner = NoPlayer
}

// Stop kills all motion in place.
func (b *Ball) Stop() {
	b.Vel = pitch.Vec{}
	b.VZ = 0
	b.Spin = pitch.Vec{}
	b.Pos.H = 0
	b.Motion = BallRolling
	b.BounceCount = 0
}

// PlaceAt teleports the ball for a restart (kickoff, throw-in, corner,
// goal kick). Restarts are the one legal teleport.
func (b *Ball) PlaceAt(at pitch.Coord10) {
	b.Stop()
	b.Pos = at
	b.sweptFrom = at
	b.PrevOwner = b.Owner
	b.Owner = NoPlayer
}

// giveTo transfers ownership to slot and snaps the ball to the new owner's
// position. Snapping to the player, never the ball's free-flight point,
// keeps transfers teleport-free for every consumer of the trace.
func (b *Ball) giveTo(slot int8, at pitch.Coord10) {
	b.PrevOwner = b.Owner
	b.Owner = slot
	b.Pos = at
	b.sweptFrom = at
	b.Pos.H = 0
	b.Vel = pitch.Vec{}
	b.VZ = 0
	b.Spin = pitch.Vec{}
	b.Motion = BallRolling
	b.BounceCount = 0
}
