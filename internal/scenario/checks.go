package scenario

import (
	"fmt"

	"matchday/internal/match"
	"matchday/internal/pitch"
)

// Check inspects a stepped engine and reports mismatches in plain words.
// A holding check returns nothing.
type Check func(e *match.MatchEngine) []string

// ExpectBallOwner requires the ball at the given slot's feet.
func ExpectBallOwner(slot int8) Check {
	return func(e *match.MatchEngine) []string {
		if got := e.BallOwner(); got != slot {
			return []string{fmt.Sprintf("ball owner is slot %d, want slot %d", got, slot)}
		}
		return nil
	}
}

// ExpectBallLoose requires an unowned ball.
func ExpectBallLoose() Check {
	return func(e *match.MatchEngine) []string {
		if got := e.BallOwner(); got != match.NoPlayer {
			return []string{fmt.Sprintf("ball owned by slot %d, want loose", got)}
		}
		return nil
	}
}

// ExpectBallWithin requires the ball within radiusM meters of (xM, yM).
func ExpectBallWithin(xM, yM, radiusM float64) Check {
	return func(e *match.MatchEngine) []string {
		at := pitch.CoordFromMeters(xM, yM)
		pos := e.BallPosition()
		if d := pos.DistTo(at); d > pitch.FromFloat(radiusM) {
			return []string{fmt.Sprintf(
				"ball at (%.1f, %.1f), %.1fm from (%.1f, %.1f), want within %.1fm",
				pos.X.Meters(), pos.Y.Meters(), d.Meters(), xM, yM, radiusM)}
		}
		return nil
	}
}

// ExpectBallSlowerThan requires ball ground speed under the given m/s.
func ExpectBallSlowerThan(ms float64) Check {
	return func(e *match.MatchEngine) []string {
		if got := e.Metric("ball.speed_ms"); got >= ms {
			return []string{fmt.Sprintf("ball speed %.1f m/s, want under %.1f", got, ms)}
		}
		return nil
	}
}

// ExpectEventCount requires an exact number of events of one kind.
func ExpectEventCount(kind match.EventKind, want int) Check {
	return func(e *match.MatchEngine) []string {
		if got := e.EventCount(kind); got != want {
			return []string{fmt.Sprintf("%d %s events, want %d", got, kind, want)}
		}
		return nil
	}
}

// ExpectEventsBetween requires the count of one kind inside [min, max].
func ExpectEventsBetween(kind match.EventKind, min, max int) Check {
	return func(e *match.MatchEngine) []string {
		got := e.EventCount(kind)
		if got < min || got > max {
			return []string{fmt.Sprintf("%d %s events, want %d–%d", got, kind, min, max)}
		}
		return nil
	}
}

// ExpectScore requires the exact score line.
func ExpectScore(home, away int) Check {
	return func(e *match.MatchEngine) []string {
		h, a := e.Score()
		if h != home || a != away {
			return []string{fmt.Sprintf("score %d–%d, want %d–%d", h, a, home, away)}
		}
		return nil
	}
}

// ExpectPhase requires the engine's top-level play state.
func ExpectPhase(phase match.MatchPhase) Check {
	return func(e *match.MatchEngine) []string {
		if got := e.Phase(); got != phase {
			return []string{fmt.Sprintf("phase %s, want %s", got, phase)}
		}
		return nil
	}
}

// ExpectOwnerOnTeam requires the ball held by any player of the team.
func ExpectOwnerOnTeam(t match.Team) Check {
	return func(e *match.MatchEngine) []string {
		owner := e.BallOwner()
		if owner == match.NoPlayer {
			return []string{fmt.Sprintf("ball loose, want owned by %s", t)}
		}
		if got := match.SlotTeam(owner); got != t {
			return []string{fmt.Sprintf("ball owned by %s slot %d, want %s", got, owner, t)}
		}
		return nil
	}
}
