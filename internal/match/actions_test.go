package match

import (
	"math/rand"
	"testing"

	"matchday/internal/pitch"
)

// rigEngine builds a bare engine around the parked 22-player layout for
// exercising decision scoring without running ticks.
func rigEngine() *MatchEngine {
	e := &MatchEngine{
		rng:        rand.New(rand.NewSource(5)),
		grid:       newPlayerGrid(),
		queue:      newActionQueue(),
		difficulty: [2]uint8{100, 100},
		dir: [2]DirectionContext{
			{IsHome: true, AttacksRight: true},
			{IsHome: false, AttacksRight: false},
		},
	}
	ps := contestPlayers()
	copy(e.players[:], ps[:])
	e.grid.Rebuild(e.players[:])
	return e
}

// TestActionQueue exercises the one-action-per-player queue lifecycle.
func TestActionQueue(t *testing.T) {
	q := newActionQueue()
	a := ScheduledAction{Kind: ActionPass, Actor: 5, CompleteTick: 10}

	if !q.schedule(a) {
		t.Fatal("first schedule refused")
	}
	if q.schedule(a) {
		t.Fatal("double schedule for one actor accepted")
	}
	if !q.hasAction(5) || q.hasAction(6) {
		t.Error("busy flags wrong after schedule")
	}
	if q.schedule(ScheduledAction{Actor: NoPlayer}) {
		t.Error("scheduled an action for nobody")
	}

	q.schedule(ScheduledAction{Kind: ActionShot, Actor: 7, CompleteTick: 12})

	var due []ScheduledAction
	due = q.collectDue(9, due)
	if len(due) != 0 {
		t.Fatalf("collected %d actions before their tick", len(due))
	}
	due = q.collectDue(10, due[:0])
	if len(due) != 1 || due[0].Actor != 5 {
		t.Fatalf("tick 10 collected %+v, want actor 5", due)
	}
	if q.hasAction(5) {
		t.Error("actor 5 still busy after collection")
	}
	if !q.hasAction(7) {
		t.Error("actor 7 lost its pending action")
	}

	q.cancelFor(7)
	if q.hasAction(7) || len(q.pending) != 0 {
		t.Error("cancel left state behind")
	}

	q.schedule(ScheduledAction{Actor: 3, CompleteTick: 99})
	q.reset()
	if q.hasAction(3) || len(q.pending) != 0 {
		t.Error("reset left state behind")
	}
}

// TestPressureOn verifies crowding rises with nearby opponents and ignores
// teammates.
func TestPressureOn(t *testing.T) {
	e := rigEngine()
	e.players[5].Pos = pitch.CoordFromMeters(40, 30)
	e.grid.Rebuild(e.players[:])

	if got := e.pressureOn(&e.players[5]); got != 0 {
		t.Fatalf("pressure %v with nobody around, want 0", got)
	}

	e.players[15].Pos = pitch.CoordFromMeters(41, 30)
	e.grid.Rebuild(e.players[:])
	one := e.pressureOn(&e.players[5])
	if one <= 0.3 {
		t.Errorf("pressure %v with a marker at one meter, want > 0.3", one)
	}

	e.players[16].Pos = pitch.CoordFromMeters(40, 31.5)
	e.grid.Rebuild(e.players[:])
	two := e.pressureOn(&e.players[5])
	if two <= one {
		t.Errorf("second marker did not raise pressure: %v then %v", one, two)
	}
	if two > 1 {
		t.Errorf("pressure %v above the cap", two)
	}

	e.players[6].Pos = pitch.CoordFromMeters(40.5, 30) // teammate
	e.grid.Rebuild(e.players[:])
	if got := e.pressureOn(&e.players[5]); got != two {
		t.Errorf("teammate changed pressure from %v to %v", two, got)
	}
}

// TestScoreShot verifies range gating and the shooting-skill slope.
func TestScoreShot(t *testing.T) {
	e := rigEngine()
	p := &e.players[9]

	if got := e.scoreShot(p, 30); got != -1 {
		t.Errorf("shot from 30 m scored %v, want rejected", got)
	}
	near := e.scoreShot(p, 8)
	far := e.scoreShot(p, 22)
	if near <= far {
		t.Errorf("closer shot %v should outscore longer shot %v", near, far)
	}

	p.Attr.Shooting = 90
	better := e.scoreShot(p, 8)
	if better <= near {
		t.Errorf("sharper shooter %v should outscore %v", better, near)
	}
}

// TestScorePass verifies receiver choice: open teammates beat marked ones,
// and unreachable ones are filtered.
func TestScorePass(t *testing.T) {
	e := rigEngine()
	d := e.dir[TeamHome]
	e.players[5].Pos = pitch.CoordFromMeters(40, 30)
	e.players[6].Pos = pitch.CoordFromMeters(50, 30) // open
	e.players[7].Pos = pitch.CoordFromMeters(50, 40) // marked
	e.players[16].Pos = pitch.CoordFromMeters(50.5, 40)

	slot, score := e.scorePass(&e.players[5], d)
	if slot != 6 {
		t.Fatalf("receiver %d, want the open runner 6", slot)
	}
	if score <= 0 {
		t.Errorf("score %v for a clean forward pass, want positive", score)
	}
}

// TestScorePassNoReceiver verifies the no-option result.
func TestScorePassNoReceiver(t *testing.T) {
	e := rigEngine()
	// Isolate the passer beyond range of everyone.
	e.players[5].Pos = pitch.CoordFromMeters(100, 66)
	for i := range e.players {
		if i != 5 {
			e.players[i].Pos = pitch.CoordFromMeters(5, 2)
		}
	}
	slot, score := e.scorePass(&e.players[5], e.dir[TeamHome])
	if slot != NoPlayer || score != -1 {
		t.Errorf("got (%d, %v), want no receiver", slot, score)
	}
}

// TestScoreCross verifies crosses only score from wide attacking channels.
func TestScoreCross(t *testing.T) {
	e := rigEngine()
	d := e.dir[TeamHome]
	tests := []struct {
		name       string
		x, y       float64
		wantOption bool
	}{
		{"wide right attacking third", 85, 60, true},
		{"wide left attacking third", 85, 8, true},
		{"central attacking third", 85, 34, false},
		{"wide but too deep", 50, 60, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.players[8].Pos = pitch.CoordFromMeters(tt.x, tt.y)
			got := e.scoreCross(&e.players[8], d)
			if tt.wantOption && got <= 0 {
				t.Errorf("score %v, want a live option", got)
			}
			if !tt.wantOption && got != -1 {
				t.Errorf("score %v, want rejected", got)
			}
		})
	}
}

// TestLaneBlocked verifies the pass-lane check: an opponent on the line
// blocks it, off the line or behind the passer does not.
func TestLaneBlocked(t *testing.T) {
	e := rigEngine()
	e.players[5].Pos = pitch.CoordFromMeters(30, 30)
	target := pitch.CoordFromMeters(40, 30)

	tests := []struct {
		name string
		oppX float64
		oppY float64
		want bool
	}{
		{"opponent on the lane", 35, 30.5, true},
		{"opponent off the lane", 35, 33, false},
		{"opponent behind the passer", 25, 30, false},
		{"opponent past the receiver", 45, 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.players[15].Pos = pitch.CoordFromMeters(tt.oppX, tt.oppY)
			if got := e.laneBlocked(&e.players[5], target); got != tt.want {
				t.Errorf("laneBlocked = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestOnWeakFoot verifies the weak-foot heuristic for both footedness and
// mostly-forward kicks.
func TestOnWeakFoot(t *testing.T) {
	e := rigEngine()
	p := &e.players[5]
	p.Pos = pitch.CoordFromMeters(30, 30)
	p.Foot = FootRight

	if !e.onWeakFoot(p, pitch.CoordFromMeters(30, 20)) {
		t.Error("right-footer cutting hard low should be on the weak foot")
	}
	if e.onWeakFoot(p, pitch.CoordFromMeters(30, 40)) {
		t.Error("right-footer opening up high should be on the strong foot")
	}
	if e.onWeakFoot(p, pitch.CoordFromMeters(42, 25)) {
		t.Error("a mostly forward kick never forces the weak foot")
	}

	p.Foot = FootLeft
	if !e.onWeakFoot(p, pitch.CoordFromMeters(30, 40)) {
		t.Error("left-footer opening up high should be on the weak foot")
	}
}

// TestDecideShootsFromCloseRange verifies the carrier pulls the trigger when
// nothing else is on: close to goal, no pass in range, central so no cross.
func TestDecideShootsFromCloseRange(t *testing.T) {
	e := rigEngine()
	p := &e.players[9]
	p.Pos = pitch.CoordFromMeters(99, 34)
	p.Attr.Shooting = 90
	p.Attr.Technique = 30
	e.grid.Rebuild(e.players[:])

	e.decideForOwner(p)
	if len(e.queue.pending) != 1 {
		t.Fatalf("%d actions scheduled, want 1", len(e.queue.pending))
	}
	a := e.queue.pending[0]
	if a.Kind != ActionShot {
		t.Fatalf("scheduled %v, want a shot", a.Kind)
	}
	if a.Actor != p.Slot || a.TargetSlot != NoPlayer {
		t.Errorf("shot attribution wrong: %+v", a)
	}
	if a.TargetPos.X != pitch.FieldLength {
		t.Errorf("shot aimed at x %v, want the goal line", a.TargetPos.X)
	}
	if a.CompleteTick != e.tick+actionWindup[ActionShot] {
		t.Errorf("windup %d, want %d", a.CompleteTick-e.tick, actionWindup[ActionShot])
	}
	if a.DecisionQuality < 0.5 || a.DecisionQuality > 2.0 {
		t.Errorf("decision quality %v outside its band", a.DecisionQuality)
	}
	if !e.queue.hasAction(p.Slot) {
		t.Error("actor not marked busy")
	}
}

// TestSchedulePassWithNoReceiverFallsBack verifies a pass with no target
// degrades to a dribble touch instead of losing the turn.
func TestSchedulePassWithNoReceiverFallsBack(t *testing.T) {
	e := rigEngine()
	e.schedulePass(&e.players[5], NoPlayer, 1.0)
	if len(e.queue.pending) != 1 || e.queue.pending[0].Kind != ActionDribbleTouch {
		t.Fatalf("pending %+v, want one dribble touch", e.queue.pending)
	}
}

// TestScheduleClearanceGoesUpfield verifies clearances launch away from the
// defended goal with loft.
func TestScheduleClearanceGoesUpfield(t *testing.T) {
	e := rigEngine()
	p := &e.players[0]
	p.Pos = pitch.CoordFromMeters(5, 34)

	e.scheduleClearance(p, 1.0)
	if len(e.queue.pending) != 1 {
		t.Fatalf("%d actions, want 1", len(e.queue.pending))
	}
	a := e.queue.pending[0]
	if a.Kind != ActionClearance {
		t.Fatalf("kind %v, want clearance", a.Kind)
	}
	if a.TargetPos.X <= p.Pos.X {
		t.Errorf("clearance target x %v behind the kicker at %v", a.TargetPos.X, p.Pos.X)
	}
	if a.LaunchVZ <= 0 {
		t.Error("clearance should be lofted")
	}
}

// TestScheduleDribbleTouchLeadsRun verifies the touch goes out in front of a
// moving carrier and inherits the run speed.
func TestScheduleDribbleTouchLeadsRun(t *testing.T) {
	e := rigEngine()
	p := &e.players[5]
	p.Pos = pitch.CoordFromMeters(40, 30)
	p.Vel = pitch.Vec{X: pitch.FromMeters(4)}

	e.scheduleDribbleTouch(p, 1.0)
	a := e.queue.pending[0]
	if a.TargetPos.X <= p.Pos.X || a.TargetPos.Y != p.Pos.Y {
		t.Errorf("touch target %+v, want straight ahead of %+v", a.TargetPos, p.Pos)
	}
	if a.Power <= p.Vel.Len() {
		t.Errorf("touch power %v should beat the run speed %v", a.Power, p.Vel.Len())
	}

	// A standing carrier still knocks it toward the attacked goal.
	q := &e.players[6]
	q.Pos = pitch.CoordFromMeters(40, 40)
	q.Vel = pitch.Vec{}
	e.scheduleDribbleTouch(q, 1.0)
	b := e.queue.pending[1]
	if b.TargetPos.X <= q.Pos.X {
		t.Errorf("standing touch target %+v should go forward", b.TargetPos)
	}
}
