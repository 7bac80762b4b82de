package api

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"matchday/internal/match"
	"matchday/internal/scenario"
)

// TestLiveRunnerStopFastForwards verifies Stop completes the match record
// instead of abandoning it mid-half.
func TestLiveRunnerStopFastForwards(t *testing.T) {
	lr := NewLiveRunner(nil, nil, nil, zerolog.Nop())

	plan := scenario.DefaultPlan(11)
	if err := lr.Start(plan); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !lr.Running() {
		t.Fatal("runner should report running after Start")
	}

	lr.Stop()

	if lr.Running() {
		t.Fatal("runner should be idle after Stop")
	}
	st := lr.Status()
	if _, ok := st["lastScore"]; !ok {
		t.Fatal("a stopped match should still produce a final score")
	}
}

// TestLiveRunnerRejectsConcurrentStart verifies the single-live-match rule.
func TestLiveRunnerRejectsConcurrentStart(t *testing.T) {
	lr := NewLiveRunner(nil, nil, nil, zerolog.Nop())
	defer lr.Stop()

	if err := lr.Start(scenario.DefaultPlan(1)); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	err := lr.Start(scenario.DefaultPlan(2))
	if !errors.Is(err, ErrLiveRunning) {
		t.Fatalf("second Start error = %v, want ErrLiveRunning", err)
	}
}

// TestLiveRunnerRejectsBadPlan verifies construction errors pass through.
func TestLiveRunnerRejectsBadPlan(t *testing.T) {
	lr := NewLiveRunner(nil, nil, nil, zerolog.Nop())

	plan := scenario.DefaultPlan(1)
	plan.Away.Starters = nil
	err := lr.Start(plan)
	if !errors.Is(err, match.ErrInvalidPlan) {
		t.Fatalf("Start error = %v, want ErrInvalidPlan", err)
	}
	if lr.Running() {
		t.Fatal("a rejected plan must not leave the runner running")
	}
}
