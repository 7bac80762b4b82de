package match

import (
	"errors"
	"fmt"

	"matchday/internal/pitch"
)

// ErrInvalidPlan is the sentinel wrapped by every plan validation failure.
// A plan that fails validation never produces an engine; simulation does
// not start on a malformed setup.
var ErrInvalidPlan = errors.New("invalid match plan")

// RosterPlayer describes one squad member in a plan.
type RosterPlayer struct {
	// Slot is the player's team-local slot, 0–10. Slot 0 must be the
	// goalkeeper.
	Slot  int        `json:"slot"`
	Name  string     `json:"name"`
	Attr  Attributes `json:"attributes"`
	Foot  Foot       `json:"foot"`
	Trait Traits     `json:"traits"`
}

// TeamPlan is one side's setup.
type TeamPlan struct {
	Name         string         `json:"name"`
	Formation    string         `json:"formation"`
	Starters     []RosterPlayer `json:"starters"`
	Subs         []RosterPlayer `json:"subs,omitempty"`
	Instructions Instructions   `json:"instructions"`
	// Coordination 0–100 drives offside-trap line weighting.
	Coordination uint8 `json:"coordination"`
}

// Capabilities are construction-time feature switches. They become plain
// fields on the engine, never runtime conditionals scattered through the
// tick loop.
type Capabilities struct {
	// Trace records every tick's ball and player positions.
	Trace bool `json:"trace"`
}

// MatchPlan is the full input to a simulation: rosters, tactics, seed.
// The same plan and seed reproduce the same match exactly.
type MatchPlan struct {
	Home TeamPlan `json:"home"`
	Away TeamPlan `json:"away"`
	Seed int64    `json:"seed"`

	// HalfTicks is the length of one half in decision ticks. Zero means
	// the regulation DefaultHalfTicks; tests shorten it.
	HalfTicks uint32 `json:"halfTicks,omitempty"`

	// Difficulty 0–100 per side handicaps AI option scoring. Zero value
	// means DefaultDifficulty.
	HomeDifficulty uint8 `json:"homeDifficulty,omitempty"`
	AwayDifficulty uint8 `json:"awayDifficulty,omitempty"`

	// UserSlot designates the hero player (global slot 0–21) for highlight
	// weighting; NoPlayer for none.
	UserSlot int8 `json:"userSlot"`

	Capabilities Capabilities `json:"capabilities"`
}

// Regulation timing: 45 simulated minutes per half at 20 ticks per second.
const (
	DefaultHalfTicks  = 45 * 60 * TickHz
	DefaultDifficulty = 50
)

// NewMatchPlan returns a plan with the user slot cleared and defaults that
// validate (rosters still required).
func NewMatchPlan() MatchPlan {
	return MatchPlan{UserSlot: NoPlayer}
}

// Validate checks a plan is simulatable. Descriptive errors, wrapped around
// ErrInvalidPlan; the first problem found is reported.
func (mp *MatchPlan) Validate() error {
	if err := mp.Home.validate("home"); err != nil {
		return err
	}
	if err := mp.Away.validate("away"); err != nil {
		return err
	}
	if mp.UserSlot != NoPlayer && (mp.UserSlot < 0 || mp.UserSlot >= TotalSlots) {
		return fmt.Errorf("%w: user slot %d outside 0–%d", ErrInvalidPlan, mp.UserSlot, TotalSlots-1)
	}
	return nil
}

func (tp *TeamPlan) validate(side string) error {
	if len(tp.Starters) != SlotsPerTeam {
		return fmt.Errorf("%w: %s has %d starters, need %d", ErrInvalidPlan, side, len(tp.Starters), SlotsPerTeam)
	}
	formation := FormationByName(tp.Formation)
	keeperSlots := 0
	for i := range tp.Starters {
		s := &tp.Starters[i]
		if s.Slot < 0 || s.Slot >= SlotsPerTeam {
			return fmt.Errorf("%w: %s starter %q has slot %d outside 0–%d", ErrInvalidPlan, side, s.Name, s.Slot, SlotsPerTeam-1)
		}
		if formation.Roles[s.Slot] == RoleGK {
			keeperSlots++
		}
	}
	if keeperSlots == 0 {
		return fmt.Errorf("%w: %s is missing a goalkeeper", ErrInvalidPlan, side)
	}
	var seen [SlotsPerTeam]bool
	for i := range tp.Starters {
		if seen[tp.Starters[i].Slot] {
			return fmt.Errorf("%w: %s has duplicate slot %d", ErrInvalidPlan, side, tp.Starters[i].Slot)
		}
		seen[tp.Starters[i].Slot] = true
	}
	return nil
}

// halfTicks resolves the configured half length.
func (mp *MatchPlan) halfTicks() uint32 {
	if mp.HalfTicks == 0 {
		return DefaultHalfTicks
	}
	return mp.HalfTicks
}

func (mp *MatchPlan) difficulty(t Team) uint8 {
	v := mp.HomeDifficulty
	if t == TeamAway {
		v = mp.AwayDifficulty
	}
	if v == 0 {
		return DefaultDifficulty
	}
	return v
}

// validateScenarioCoord checks an injected scenario coordinate. Out-of-bounds
// injection is a setup mistake and is reported rather than silently clamped.
func validateScenarioCoord(c pitch.Coord10, what string) error {
	if !pitch.MarginRect.Contains(c) {
		return fmt.Errorf("%w: %s (%.1f, %.1f) outside the field margin",
			ErrInvalidPlan, what, c.X.Meters(), c.Y.Meters())
	}
	return nil
}
