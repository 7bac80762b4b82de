package match

import "matchday/internal/pitch"

// TeamStats is one side's aggregate block.
type TeamStats struct {
	Goals           int `json:"goals"`
	Shots           int `json:"shots"`
	ShotsOnTarget   int `json:"shotsOnTarget"`
	PassesAttempted int `json:"passesAttempted"`
	PassesCompleted int `json:"passesCompleted"`
	Crosses         int `json:"crosses"`
	TacklesWon      int `json:"tacklesWon"`
	Interceptions   int `json:"interceptions"`
	Saves           int `json:"saves"`
	Fouls           int `json:"fouls"`
	YellowCards     int `json:"yellowCards"`
	RedCards        int `json:"redCards"`
	Corners         int `json:"corners"`
	ThrowIns        int `json:"throwIns"`
	GoalKicks       int `json:"goalKicks"`

	// PossessionTicks counts ticks this side's player owned the ball.
	PossessionTicks uint32 `json:"possessionTicks"`

	// DistanceKM is total ground covered by the XI.
	DistanceKM float64 `json:"distanceKm"`
	// TopSpeedMS is the fastest single player speed seen.
	TopSpeedMS float64 `json:"topSpeedMs"`
}

// MatchStats aggregates both sides plus shared counters.
type MatchStats struct {
	Home TeamStats `json:"home"`
	Away TeamStats `json:"away"`
}

func (s *MatchStats) team(t Team) *TeamStats {
	if t == TeamHome {
		return &s.Home
	}
	return &s.Away
}

// PossessionPct splits possession between the sides, home first. Ticks with
// a loose ball count for neither and are excluded from the split.
func (s *MatchStats) PossessionPct() (home, away float64) {
	total := s.Home.PossessionTicks + s.Away.PossessionTicks
	if total == 0 {
		return 50, 50
	}
	home = 100 * float64(s.Home.PossessionTicks) / float64(total)
	return home, 100 - home
}

// finalizeMovement folds per-player movement tallies into the team blocks.
func (s *MatchStats) finalizeMovement(players []Player) {
	for i := range players {
		p := &players[i]
		ts := s.team(p.Team())
		ts.DistanceKM += p.DistCovered.Meters() / 1000
		if v := p.TopSpeed.Meters(); v > ts.TopSpeedMS {
			ts.TopSpeedMS = v
		}
	}
}

// MatchResult is the complete output of a simulated match.
type MatchResult struct {
	HomeTeam  string     `json:"homeTeam"`
	AwayTeam  string     `json:"awayTeam"`
	HomeGoals int        `json:"homeGoals"`
	AwayGoals int        `json:"awayGoals"`
	Seed      int64      `json:"seed"`
	Events    []Event    `json:"events"`
	Stats     MatchStats `json:"stats"`
	// Trace is present only when the trace capability was enabled.
	Trace *Trace `json:"trace,omitempty"`
}

// Trace is the optional full position record, one frame per tick.
type Trace struct {
	Frames []TraceFrame `json:"frames"`
}

// TraceFrame is one tick's positions: ball plus all 22 players.
type TraceFrame struct {
	Tick      uint32                    `json:"tick"`
	Ball      pitch.Coord10             `json:"ball"`
	BallOwner int8                      `json:"ballOwner"`
	Players   [TotalSlots]pitch.Coord10 `json:"players"`
}

// newTrace sizes the frame store for a match.
func newTrace(ticks uint32) *Trace {
	return &Trace{Frames: make([]TraceFrame, 0, ticks)}
}

// record appends one frame.
func (t *Trace) record(tick uint32, ball *Ball, players []Player) {
	f := TraceFrame{Tick: tick, Ball: ball.Pos, BallOwner: ball.Owner}
	for i := range players {
		f.Players[i] = players[i].Pos
	}
	t.Frames = append(t.Frames, f)
}
