package match

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"matchday/internal/pitch"
)

func rigged(t *testing.T, seed int64) *MatchEngine {
	t.Helper()
	e, err := NewMatchEngine(testPlan(seed))
	if err != nil {
		t.Fatalf("NewMatchEngine: %v", err)
	}
	return e
}

// TestInjectBallOpensPlay verifies injection clears the pending kickoff and
// leaves a loose resting ball exactly where asked, with no touch history.
func TestInjectBallOpensPlay(t *testing.T) {
	e := rigged(t, 1)
	if e.Phase() != PhaseRestart {
		t.Fatalf("fresh engine phase = %s, want restart", e.Phase())
	}

	at := pitch.CoordFromMeters(52.5, 34)
	if err := e.InjectBall(at, pitch.Vec{}, 0); err != nil {
		t.Fatalf("InjectBall: %v", err)
	}
	if e.Phase() != PhaseOpenPlay {
		t.Errorf("phase = %s, want open_play", e.Phase())
	}
	if e.BallOwner() != NoPlayer {
		t.Errorf("ball owner = %d, want loose", e.BallOwner())
	}
	if e.ball.Pos != at {
		t.Errorf("ball at %+v, want %+v", e.ball.Pos, at)
	}
	if e.ball.PrevOwner != NoPlayer {
		t.Errorf("injected ball has touch history: prev owner %d", e.ball.PrevOwner)
	}
	if e.ball.Motion != BallRolling || !e.ball.Vel.IsZero() {
		t.Errorf("injected ball not at rest: motion %s vel %+v", e.ball.Motion, e.ball.Vel)
	}
	if e.restart != nil {
		t.Error("restart still pending after injection")
	}
}

// TestInjectBallVelocity verifies launch fields and airborne flagging.
func TestInjectBallVelocity(t *testing.T) {
	e := rigged(t, 1)
	at := pitch.CoordFromMeters(30, 30)
	if err := e.InjectBall(at, pitch.VecFromMeters(6, 0), pitch.FromFloat(4)); err != nil {
		t.Fatalf("InjectBall: %v", err)
	}
	if e.ball.Motion != BallAirborne {
		t.Errorf("motion = %s, want airborne", e.ball.Motion)
	}
	if e.ball.VZ != pitch.FromFloat(4) {
		t.Errorf("vz = %v, want %v", e.ball.VZ, pitch.FromFloat(4))
	}
	if got, want := e.ball.Speed(), pitch.FromMeters(6); got != want {
		t.Errorf("speed = %v, want %v", got, want)
	}

	// Injected above the turf it is airborne even with no vertical speed.
	high := at
	high.H = pitch.FromMeters(1.5)
	if err := e.InjectBall(high, pitch.Vec{}, 0); err != nil {
		t.Fatalf("InjectBall high: %v", err)
	}
	if e.ball.Motion != BallAirborne {
		t.Errorf("dropped ball motion = %s, want airborne", e.ball.Motion)
	}
}

// TestInjectBallRejectsBadSpots verifies out-of-bounds spots and finished
// matches are reported, with engine state left alone.
func TestInjectBallRejectsBadSpots(t *testing.T) {
	e := rigged(t, 1)
	err := e.InjectBall(pitch.CoordFromMeters(-8, 34), pitch.Vec{}, 0)
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("err = %v, want ErrInvalidPlan", err)
	}
	if !strings.Contains(err.Error(), "ball") {
		t.Errorf("error %q does not name the ball", err)
	}
	if e.Phase() != PhaseRestart {
		t.Errorf("failed injection changed phase to %s", e.Phase())
	}

	e.Play()
	err = e.InjectBall(pitch.CoordFromMeters(52.5, 34), pitch.Vec{}, 0)
	if !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("post-full-time injection: err = %v, want ErrInvalidPlan", err)
	}
}

// TestInjectPlayerMovesAndPinsBall verifies teleporting a slot, that a
// carried ball moves along, and the slot/coordinate validation.
func TestInjectPlayerMovesAndPinsBall(t *testing.T) {
	e := rigged(t, 1)
	at := pitch.CoordFromMeters(60, 20)
	if err := e.InjectPlayer(16, at); err != nil {
		t.Fatalf("InjectPlayer: %v", err)
	}
	p, ok := e.Player(16)
	if !ok || p.Pos != at {
		t.Errorf("player 16 at %+v, want %+v", p.Pos, at)
	}
	if !p.Vel.IsZero() {
		t.Errorf("teleported player keeps velocity %+v", p.Vel)
	}

	e.ball.giveTo(16, at)
	dest := pitch.CoordFromMeters(48, 44)
	if err := e.InjectPlayer(16, dest); err != nil {
		t.Fatalf("InjectPlayer with ball: %v", err)
	}
	if e.BallOwner() != 16 {
		t.Errorf("ball owner = %d, want 16", e.BallOwner())
	}
	if e.ball.Pos != dest {
		t.Errorf("carried ball at %+v, want %+v", e.ball.Pos, dest)
	}

	for _, slot := range []int8{-1, 22} {
		if err := e.InjectPlayer(slot, at); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("slot %d: err = %v, want ErrInvalidPlan", slot, err)
		}
	}
	if err := e.InjectPlayer(4, pitch.CoordFromMeters(52.5, 80)); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("off-field spot: err = %v, want ErrInvalidPlan", err)
	}
}

// TestForcePassQueuesRealPass verifies a forced pass hands over the ball,
// queues the action, and plays out through the normal flight path.
func TestForcePassQueuesRealPass(t *testing.T) {
	e := rigged(t, 3)
	if err := e.InjectPlayer(6, pitch.CoordFromMeters(25, 20)); err != nil {
		t.Fatalf("InjectPlayer(6): %v", err)
	}
	if err := e.InjectPlayer(9, pitch.CoordFromMeters(37, 20)); err != nil {
		t.Fatalf("InjectPlayer(9): %v", err)
	}
	if err := e.ForcePass(6, 9); err != nil {
		t.Fatalf("ForcePass: %v", err)
	}
	if e.BallOwner() != 6 {
		t.Fatalf("ball owner = %d, want the passer", e.BallOwner())
	}
	if e.Phase() != PhaseOpenPlay {
		t.Fatalf("phase = %s, want open_play", e.Phase())
	}
	if !e.queue.hasAction(6) {
		t.Fatal("no queued action for the passer")
	}

	for i := 0; i < 60 && e.EventCount(EventPass) == 0; i++ {
		e.Step()
	}
	if e.EventCount(EventPass) == 0 {
		t.Fatal("forced pass never resolved")
	}
	var pp PassPayload
	for _, ev := range e.Events() {
		if ev.Kind == EventPass {
			if err := json.Unmarshal(ev.Payload, &pp); err != nil {
				t.Fatalf("pass payload: %v", err)
			}
		}
	}
	if pp.From != 6 || pp.To != 9 {
		t.Errorf("pass recorded %d->%d, want 6->9", pp.From, pp.To)
	}
}

// TestForcePassValidation verifies every rejected pairing.
func TestForcePassValidation(t *testing.T) {
	e := rigged(t, 1)
	tests := []struct {
		name     string
		from, to int8
	}{
		{"same slot", 6, 6},
		{"opponent receiver", 6, 15},
		{"negative passer", -2, 9},
		{"receiver out of range", 6, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.ForcePass(tt.from, tt.to); !errors.Is(err, ErrInvalidPlan) {
				t.Errorf("ForcePass(%d, %d) = %v, want ErrInvalidPlan", tt.from, tt.to, err)
			}
		})
	}

	e.players[9].SentOff = true
	if err := e.ForcePass(6, 9); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("pass to a sent-off player: err = %v, want ErrInvalidPlan", err)
	}
}

// TestForceBallOutNearestLine verifies the exit aims at the closest
// boundary and the normal restart pipeline picks it up.
func TestForceBallOutNearestLine(t *testing.T) {
	e := rigged(t, 2)
	if err := e.InjectBall(pitch.CoordFromMeters(30, 2), pitch.Vec{}, 0); err != nil {
		t.Fatalf("InjectBall: %v", err)
	}
	if err := e.ForceBallOut(12); err != nil {
		t.Fatalf("ForceBallOut: %v", err)
	}
	if e.ball.Vel.Y >= 0 || e.ball.Vel.X != 0 {
		t.Fatalf("exit velocity %+v, want straight at the near touchline", e.ball.Vel)
	}

	for i := 0; i < 15 && e.EventCount(EventThrowIn) == 0; i++ {
		e.Step()
	}
	if got := e.EventCount(EventThrowIn); got != 1 {
		t.Fatalf("throw-in events = %d, want 1", got)
	}
	if e.Phase() != PhaseRestart {
		t.Errorf("phase = %s, want restart pending", e.Phase())
	}
}

// TestForceBallOutValidation verifies speed and phase guards.
func TestForceBallOutValidation(t *testing.T) {
	e := rigged(t, 1)
	for _, speed := range []float64{0, -3} {
		if err := e.ForceBallOut(speed); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("speed %.0f: err = %v, want ErrInvalidPlan", speed, err)
		}
	}
	e.Play()
	if err := e.ForceBallOut(10); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("post-full-time exit: err = %v, want ErrInvalidPlan", err)
	}
}
