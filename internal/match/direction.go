// Package match implements the deterministic tick-based simulation core:
// ball physics, player movement, ownership resolution, goalkeeper behavior,
// action execution with modeled human error, and the MatchEngine that drives
// them. Everything advances synchronously through MatchEngine.Step; the same
// plan and seed always reproduce the same match, bit for bit.
package match

import "matchday/internal/pitch"

// DirectionContext is the single source of truth for "which way is forward"
// for one team in one half. Every positional calculation routes through it;
// no function anywhere flips an axis on its own.
type DirectionContext struct {
	IsHome       bool
	AttacksRight bool
}

// Forward returns the unit vector pointing at the goal this team attacks.
func (d DirectionContext) Forward() pitch.Vec {
	if d.AttacksRight {
		return pitch.Vec{X: pitch.One}
	}
	return pitch.Vec{X: -pitch.One}
}

// OppGoalCenter returns the center of the goal this team attacks.
func (d DirectionContext) OppGoalCenter() pitch.Coord10 {
	if d.AttacksRight {
		return pitch.RightGoalCenter
	}
	return pitch.LeftGoalCenter
}

// OwnGoalCenter returns the center of the goal this team defends.
func (d DirectionContext) OwnGoalCenter() pitch.Coord10 {
	if d.AttacksRight {
		return pitch.LeftGoalCenter
	}
	return pitch.RightGoalCenter
}

// Ahead reports whether b is closer to the attacked goal than a.
func (d DirectionContext) Ahead(a, b pitch.Coord10) bool {
	if d.AttacksRight {
		return b.X > a.X
	}
	return b.X < a.X
}

// AttackDepth maps a position to how far up the field it is for this team:
// 0 at the own goal line, FieldLength at the attacked goal line.
func (d DirectionContext) AttackDepth(c pitch.Coord10) pitch.Fixed {
	if d.AttacksRight {
		return c.X
	}
	return pitch.FieldLength - c.X
}

// Mirror maps a waypoint authored in the attacks-right frame into this
// team's actual frame. Formations are authored once, attacking right.
func (d DirectionContext) Mirror(c pitch.Coord10) pitch.Coord10 {
	if d.AttacksRight {
		return c
	}
	c.X = pitch.FieldLength - c.X
	return c
}

// Advance returns c moved dist toward the attacked goal, X axis only.
func (d DirectionContext) Advance(c pitch.Coord10, dist pitch.Fixed) pitch.Coord10 {
	if d.AttacksRight {
		c.X += dist
	} else {
		c.X -= dist
	}
	return c
}

// Swapped returns the context for the other half. Sides change at half-time;
// nothing else about the team does.
func (d DirectionContext) Swapped() DirectionContext {
	d.AttacksRight = !d.AttacksRight
	return d
}
