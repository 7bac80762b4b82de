package match

import "matchday/internal/pitch"

// Team identifies one of the two sides.
type Team uint8

const (
	TeamHome Team = iota
	TeamAway
)

func (t Team) String() string {
	if t == TeamHome {
		return "home"
	}
	return "away"
}

// Other returns the opposing side.
func (t Team) Other() Team { return 1 - t }

// Slot layout: 0–10 home, 11–21 away. NoPlayer marks "nobody" wherever a
// slot is optional (ball owner, card target).
const (
	SlotsPerTeam = 11
	TotalSlots   = 22
	NoPlayer     = int8(-1)
)

// SlotTeam returns which side a slot belongs to.
func SlotTeam(slot int8) Team {
	if slot < SlotsPerTeam {
		return TeamHome
	}
	return TeamAway
}

// Role is a player's broad positional role, resolved from the formation.
type Role uint8

const (
	RoleGK Role = iota
	RoleDF
	RoleMF
	RoleFW
)

func (r Role) String() string {
	switch r {
	case RoleGK:
		return "GK"
	case RoleDF:
		return "DF"
	case RoleMF:
		return "MF"
	default:
		return "FW"
	}
}

// Foot is a player's preferred foot.
type Foot uint8

const (
	FootRight Foot = iota
	FootLeft
)

// Attributes are 0–100 scale stats. The zero value is a hopeless player,
// 50 is journeyman, 100 is world class.
type Attributes struct {
	Tackling      uint8 `json:"tackling"`
	Aggression    uint8 `json:"aggression"`
	Bravery       uint8 `json:"bravery"`
	Strength      uint8 `json:"strength"`
	Agility       uint8 `json:"agility"`
	Passing       uint8 `json:"passing"`
	Shooting      uint8 `json:"shooting"`
	Crossing      uint8 `json:"crossing"`
	Technique     uint8 `json:"technique"`
	Composure     uint8 `json:"composure"`
	Decisions     uint8 `json:"decisions"`
	Concentration uint8 `json:"concentration"`
	Positioning   uint8 `json:"positioning"`
	Pace          uint8 `json:"pace"`
	Acceleration  uint8 `json:"acceleration"`
	Stamina       uint8 `json:"stamina"`
	Reflexes      uint8 `json:"reflexes"`
	Handling      uint8 `json:"handling"`
	Rushing       uint8 `json:"rushing"`
}

// Traits adjust positioning behavior; they never touch the error model.
type Traits struct {
	HugsTouchline bool `json:"hugsTouchline,omitempty"`
	StaysBack     bool `json:"staysBack,omitempty"`
	GetsForward   bool `json:"getsForward,omitempty"`
}

// ---------------------------------------------------------------------------
// MOVEMENT TUNING
// ---------------------------------------------------------------------------
const (
	// Player speed range in m/s across the 0–100 pace scale.
	minSprintSpeedM = 6.0
	maxSprintSpeedM = 9.4

	// Acceleration range in m/s² across the 0–100 acceleration scale.
	minAccelM = 3.5
	maxAccelM = 7.0

	// Stamina is tracked in parts-per-million of a full bar so per-tick
	// drains stay integral. 108,000 ticks in a match; a mid-stamina player
	// working hard most of the time ends the match deep in the red.
	staminaFullPPM = 1_000_000

	// Per-tick drain at high effort, before the attribute adjustment.
	staminaDrainBasePPM = 10

	// Per-tick recovery while near-stationary.
	staminaRecoverPPM = 6

	// Effort fractions (of top speed) that switch drain/recovery on.
	effortDrainFrac   = 0.55
	effortRecoverFrac = 0.20

	// Below this stamina fraction top speed starts to suffer.
	staminaKneeFrac = 0.5

	// At zero stamina a player still moves at this fraction of top speed.
	exhaustedSpeedFrac = 0.62
)

// Player is one of the 22 on-field slots. All per-tick mutable state is
// integer so replays stay bit-identical.
type Player struct {
	Slot  int8   `json:"slot"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Foot  Foot   `json:"foot"`
	Attr  Attributes
	Trait Traits

	Pos pitch.Coord10 `json:"pos"`
	Vel pitch.Vec     `json:"vel"`

	// StaminaPPM is the remaining stamina bar, 0..1,000,000.
	StaminaPPM int32 `json:"staminaPPM"`

	Hero    bool `json:"hero,omitempty"`
	Booked  bool `json:"booked,omitempty"`
	SentOff bool `json:"sentOff,omitempty"`

	// Running tallies for the stat block.
	DistCovered pitch.Fixed `json:"-"`
	TopSpeed    pitch.Fixed `json:"-"`
}

// Team returns which side the player is on.
func (p *Player) Team() Team { return SlotTeam(p.Slot) }

// IsKeeper reports whether the player is the goalkeeper.
func (p *Player) IsKeeper() bool { return p.Role == RoleGK }

// Active reports whether the player is still participating.
func (p *Player) Active() bool { return !p.SentOff }

// StaminaFrac returns remaining stamina on the 0..One fixed scale.
func (p *Player) StaminaFrac() pitch.Fixed {
	return pitch.Fixed(int64(p.StaminaPPM) * pitch.Scale / staminaFullPPM)
}

// Fatigue returns 0.0 fresh .. 1.0 empty, for the execution error model.
func (p *Player) Fatigue() float64 {
	return 1 - float64(p.StaminaPPM)/staminaFullPPM
}

// SprintSpeed returns the stamina-scaled top speed in fixed units/s.
func (p *Player) SprintSpeed() pitch.Fixed {
	base := minSprintSpeedM + (maxSprintSpeedM-minSprintSpeedM)*float64(p.Attr.Pace)/100
	top := pitch.FromFloat(base)
	knee := pitch.FromFloat(staminaKneeFrac)
	frac := p.StaminaFrac()
	if frac >= knee {
		return top
	}
	// Linear fade from full speed at the knee down to the exhausted floor.
	floor := top.Mul(pitch.FromFloat(exhaustedSpeedFrac))
	return floor + (top - floor).Mul(frac.Div(knee))
}

// AccelLimit returns the per-second velocity change budget in fixed units/s².
func (p *Player) AccelLimit() pitch.Fixed {
	base := minAccelM + (maxAccelM-minAccelM)*float64(p.Attr.Acceleration)/100
	return pitch.FromFloat(base)
}

// updateStamina applies the per-tick stamina change based on current effort.
func (p *Player) updateStamina() {
	top := p.SprintSpeed()
	if top == 0 {
		return
	}
	effort := p.Vel.Len().Div(top)
	switch {
	case effort > pitch.FromFloat(effortDrainFrac):
		// Low stamina attribute drains faster.
		drain := int32(staminaDrainBasePPM + (100-int(p.Attr.Stamina))/8)
		p.StaminaPPM -= drain
	case effort < pitch.FromFloat(effortRecoverFrac):
		p.StaminaPPM += staminaRecoverPPM
	}
	if p.StaminaPPM < 0 {
		p.StaminaPPM = 0
	}
	if p.StaminaPPM > staminaFullPPM {
		p.StaminaPPM = staminaFullPPM
	}
}

// recordMovement updates the distance and top-speed tallies after a step.
func (p *Player) recordMovement(moved pitch.Fixed) {
	p.DistCovered += moved
	if speed := p.Vel.Len(); speed > p.TopSpeed {
		p.TopSpeed = speed
	}
}
