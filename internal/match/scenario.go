package match

import (
	"fmt"

	"matchday/internal/pitch"
)

// Injection hooks for rigging a live engine into a known state. A rigged
// engine is still a real engine: hooks only put state in place and normal
// stepping takes over. Bad inputs are reported as setup errors, never
// clamped into something runnable.

// clearDeadBall drops pending restart and flight state so the next Step
// treats the injected state as live open play.
func (e *MatchEngine) clearDeadBall() {
	e.restart = nil
	e.pass = nil
	e.shot = nil
	e.queue.reset()
	e.phase = PhaseOpenPlay
}

func validateSlot(slot int8, what string) error {
	if slot < 0 || int(slot) >= TotalSlots {
		return fmt.Errorf("%w: %s slot %d outside 0..%d",
			ErrInvalidPlan, what, slot, TotalSlots-1)
	}
	return nil
}

// InjectBall places a loose ball at the given spot and launches it with the
// given ground velocity and vertical speed. A zero velocity leaves it at
// rest. The injected ball carries no touch history.
func (e *MatchEngine) InjectBall(at pitch.Coord10, vel pitch.Vec, vz pitch.Fixed) error {
	if e.phase == PhaseFullTime {
		return fmt.Errorf("%w: ball injection after full time", ErrInvalidPlan)
	}
	if err := validateScenarioCoord(at, "injected ball"); err != nil {
		return err
	}
	e.clearDeadBall()
	e.ball.PlaceAt(at)
	e.ball.Launch(vel, vz, pitch.Vec{})
	if e.ball.Pos.H > 0 {
		e.ball.Motion = BallAirborne
	}
	return nil
}

// InjectPlayer teleports a slot to the given spot with zero velocity. A ball
// owned by that slot moves along with him.
func (e *MatchEngine) InjectPlayer(slot int8, at pitch.Coord10) error {
	if err := validateSlot(slot, "injected player"); err != nil {
		return err
	}
	if err := validateScenarioCoord(at, "injected player"); err != nil {
		return err
	}
	p := &e.players[slot]
	p.Pos = at
	p.Pos.H = 0
	p.Vel = pitch.Vec{}
	if e.ball.Owner == slot {
		e.ball.Pos = p.Pos
		e.ball.Vel = pitch.Vec{}
	}
	return nil
}

// ForcePass hands the ball to a player and locks in a pass to a teammate,
// bypassing the decision layer. Execution still runs the normal windup,
// error sampling, and flight, so completion is not guaranteed.
func (e *MatchEngine) ForcePass(from, to int8) error {
	if e.phase == PhaseFullTime {
		return fmt.Errorf("%w: forced pass after full time", ErrInvalidPlan)
	}
	if err := validateSlot(from, "forced pass"); err != nil {
		return err
	}
	if err := validateSlot(to, "forced pass"); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: forced pass needs two distinct slots", ErrInvalidPlan)
	}
	if SlotTeam(from) != SlotTeam(to) {
		return fmt.Errorf("%w: forced pass from slot %d to opponent slot %d",
			ErrInvalidPlan, from, to)
	}
	if !e.players[from].Active() || !e.players[to].Active() {
		return fmt.Errorf("%w: forced pass involves a sent-off player", ErrInvalidPlan)
	}

	e.clearDeadBall()
	e.ball.giveTo(from, e.players[from].Pos)
	e.schedulePass(&e.players[from], to, 1.0)
	e.nextDecision = e.tick + decisionCooldown
	return nil
}

// ForceBallOut drives the loose ball over the nearest boundary line at the
// given speed so out-of-play handling can be exercised on demand. An owned
// ball is released first; its carrier stays the last touch.
func (e *MatchEngine) ForceBallOut(speedMS float64) error {
	if e.phase == PhaseFullTime {
		return fmt.Errorf("%w: forced exit after full time", ErrInvalidPlan)
	}
	if speedMS <= 0 {
		return fmt.Errorf("%w: forced exit needs a positive speed, got %.1f",
			ErrInvalidPlan, speedMS)
	}

	pos := e.ball.Pos
	dist := [4]pitch.Fixed{
		pos.X - pitch.FieldRect.MinX,
		pitch.FieldRect.MaxX - pos.X,
		pos.Y - pitch.FieldRect.MinY,
		pitch.FieldRect.MaxY - pos.Y,
	}
	out := [4]pitch.Vec{
		{X: -pitch.One},
		{X: pitch.One},
		{Y: -pitch.One},
		{Y: pitch.One},
	}
	nearest := 0
	for i := 1; i < 4; i++ {
		if dist[i] < dist[nearest] {
			nearest = i
		}
	}

	e.clearDeadBall()
	e.ball.Launch(out[nearest].WithLen(pitch.FromFloat(speedMS)), 0, pitch.Vec{})
	return nil
}
