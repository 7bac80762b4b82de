// Package scenario rigs real match engines into known states and verifies
// what happens next. It exists for deterministic probes over engine
// behavior: place the ball and players, optionally force an action, step a
// while, then collect human-readable mismatches from a set of checks.
//
// A rigged engine is never a mock. Every probe runs the full tick loop;
// the harness only controls the starting state and the random seed.
package scenario

import (
	"fmt"

	"matchday/internal/match"
	"matchday/internal/pitch"
)

// builder accumulates plan tweaks and deferred engine rigs during New.
// Rigs apply in option order after construction, so placements compose
// with forced actions the way they are written down.
type builder struct {
	plan match.MatchPlan
	rigs []func(*match.MatchEngine) error
}

// Option rigs one aspect of a scenario.
type Option func(*builder) error

// WithSeed fixes the random stream. Scenarios with the same options and
// seed replay identically.
func WithSeed(seed int64) Option {
	return func(b *builder) error {
		b.plan.Seed = seed
		return nil
	}
}

// WithHalfLength overrides the half length in ticks.
func WithHalfLength(ticks uint32) Option {
	return func(b *builder) error {
		if ticks == 0 {
			return fmt.Errorf("scenario: half length must be positive")
		}
		b.plan.HalfTicks = ticks
		return nil
	}
}

// WithPlan swaps out the stock fixture wholesale. Put it first; later plan
// options tweak whatever plan is in place.
func WithPlan(plan match.MatchPlan) Option {
	return func(b *builder) error {
		b.plan = plan
		return nil
	}
}

// WithTrace turns on per-tick position capture.
func WithTrace() Option {
	return func(b *builder) error {
		b.plan.Capabilities.Trace = true
		return nil
	}
}

// WithBallAt places a loose ball at rest. Coordinates are meters from the
// field origin; anything outside the playable margin fails construction.
func WithBallAt(xM, yM float64) Option {
	return func(b *builder) error {
		at := pitch.CoordFromMeters(xM, yM)
		b.rigs = append(b.rigs, func(e *match.MatchEngine) error {
			return e.InjectBall(at, pitch.Vec{}, 0)
		})
		return nil
	}
}

// WithBallVelocity launches the ball from wherever it sits, in meters per
// second. Order it after WithBallAt.
func WithBallVelocity(vxMS, vyMS, vzMS float64) Option {
	return func(b *builder) error {
		vel := pitch.VecFromMeters(vxMS, vyMS)
		vz := pitch.FromFloat(vzMS)
		b.rigs = append(b.rigs, func(e *match.MatchEngine) error {
			return e.InjectBall(e.BallPosition(), vel, vz)
		})
		return nil
	}
}

// WithPlayerAt teleports a global slot (0–21) to the given spot.
func WithPlayerAt(slot int8, xM, yM float64) Option {
	return func(b *builder) error {
		at := pitch.CoordFromMeters(xM, yM)
		b.rigs = append(b.rigs, func(e *match.MatchEngine) error {
			return e.InjectPlayer(slot, at)
		})
		return nil
	}
}

// WithForcedPass hands the ball to a slot and locks in a pass to a
// teammate before the first step. Flight still runs the real error model.
func WithForcedPass(from, to int8) Option {
	return func(b *builder) error {
		b.rigs = append(b.rigs, func(e *match.MatchEngine) error {
			return e.ForcePass(from, to)
		})
		return nil
	}
}

// WithForcedOut fires the ball over the nearest boundary at the given
// speed so the out-of-play path runs on the first steps.
func WithForcedOut(speedMS float64) Option {
	return func(b *builder) error {
		b.rigs = append(b.rigs, func(e *match.MatchEngine) error {
			return e.ForceBallOut(speedMS)
		})
		return nil
	}
}

// Scenario owns one rigged engine.
type Scenario struct {
	eng *match.MatchEngine
}

// New builds the stock fixture, applies the options in order, constructs
// the engine, then applies the placement and action rigs in order. Any
// invalid input fails construction; nothing is clamped into runnability.
func New(opts ...Option) (*Scenario, error) {
	b := &builder{plan: DefaultPlan(1)}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	eng, err := match.NewMatchEngine(b.plan)
	if err != nil {
		return nil, err
	}
	for _, rig := range b.rigs {
		if err := rig(eng); err != nil {
			return nil, err
		}
	}
	return &Scenario{eng: eng}, nil
}

// Engine exposes the underlying engine for direct probing.
func (s *Scenario) Engine() *match.MatchEngine { return s.eng }

// RunTicks advances up to n ticks, stopping early at full time, and
// returns how many ticks actually ran.
func (s *Scenario) RunTicks(n int) int {
	ran := 0
	for ; ran < n && !s.eng.Done(); ran++ {
		s.eng.Step()
	}
	return ran
}

// RunToFullTime plays the match out and returns the result.
func (s *Scenario) RunToFullTime() match.MatchResult {
	return s.eng.Play()
}

// Verify runs every check against the engine and collects the mismatches.
// An empty slice means everything held.
func (s *Scenario) Verify(checks ...Check) []string {
	var mismatches []string
	for _, c := range checks {
		mismatches = append(mismatches, c(s.eng)...)
	}
	return mismatches
}

// DefaultPlan is the stock fixture: two even mid-table squads, 4-4-2
// against 4-3-3, short halves. Probes rarely need regulation time; the
// ones that do say so with WithHalfLength.
func DefaultPlan(seed int64) match.MatchPlan {
	plan := match.NewMatchPlan()
	plan.Home = match.TeamPlan{
		Name:         "Rig Home",
		Formation:    "4-4-2",
		Starters:     fixtureSquad("RH"),
		Instructions: match.DefaultInstructions(),
		Coordination: 60,
	}
	plan.Away = match.TeamPlan{
		Name:         "Rig Away",
		Formation:    "4-3-3",
		Starters:     fixtureSquad("RA"),
		Instructions: match.DefaultInstructions(),
		Coordination: 55,
	}
	plan.Seed = seed
	plan.HalfTicks = 60 * match.TickHz
	return plan
}

// fixtureSquad builds an even starting XI, lightly varied per slot so the
// two sides are not clones of one player.
func fixtureSquad(prefix string) []match.RosterPlayer {
	starters := make([]match.RosterPlayer, match.SlotsPerTeam)
	for i := range starters {
		attr := match.Attributes{
			Tackling:      uint8(52 + i),
			Aggression:    50,
			Bravery:       55,
			Strength:      58,
			Agility:       56,
			Passing:       uint8(54 + i),
			Shooting:      uint8(48 + i*2),
			Crossing:      52,
			Technique:     uint8(52 + i),
			Composure:     56,
			Decisions:     58,
			Concentration: 58,
			Positioning:   57,
			Pace:          uint8(54 + i),
			Acceleration:  55,
			Stamina:       62,
			Reflexes:      38,
			Handling:      34,
			Rushing:       40,
		}
		if i == 0 {
			attr.Reflexes = 70
			attr.Handling = 66
			attr.Rushing = 58
		}
		starters[i] = match.RosterPlayer{
			Slot: i,
			Name: fmt.Sprintf("%s%02d", prefix, i),
			Attr: attr,
		}
	}
	return starters
}
