package match

import "sync/atomic"

// PlayerSnapshot is an immutable copy of one slot's state for feed/render
// consumers. Value types only; meters as float64 at the boundary.
type PlayerSnapshot struct {
	Slot    int8    `json:"slot"`
	Name    string  `json:"name"`
	Team    string  `json:"team"`
	Role    string  `json:"role"`
	XM      float64 `json:"xm"`
	YM      float64 `json:"ym"`
	Stamina float64 `json:"stamina"`
	Booked  bool    `json:"booked,omitempty"`
	SentOff bool    `json:"sentOff,omitempty"`
	Hero    bool    `json:"hero,omitempty"`
}

// Snapshot is a complete immutable view of the match for one tick. The
// engine fills one per tick; readers on other goroutines only ever see
// published copies.
type Snapshot struct {
	Sequence  uint64 `json:"sequence"`
	Tick      uint32 `json:"tick"`
	Minute    uint16 `json:"minute"`
	Half      uint8  `json:"half"`
	Phase     string `json:"phase"`
	HomeGoals int    `json:"homeGoals"`
	AwayGoals int    `json:"awayGoals"`

	BallXM     float64 `json:"ballXm"`
	BallYM     float64 `json:"ballYm"`
	BallHM     float64 `json:"ballHm"`
	BallOwner  int8    `json:"ballOwner"`
	BallMotion string  `json:"ballMotion"`

	Players []PlayerSnapshot `json:"players"`
}

// SnapshotPool triple-buffers snapshots for lock-free handoff between the
// stepping goroutine (producer) and feed consumers.
type SnapshotPool struct {
	snapshots [3]Snapshot
	writeIdx  atomic.Uint32
	readIdx   atomic.Uint32
	sequence  atomic.Uint64
}

// NewSnapshotPool preallocates the player slices so publishing allocates
// nothing per tick.
func NewSnapshotPool() *SnapshotPool {
	p := &SnapshotPool{}
	for i := range p.snapshots {
		p.snapshots[i].Players = make([]PlayerSnapshot, 0, TotalSlots)
	}
	return p
}

// AcquireWrite returns the next write slot with its slice reset but the
// capacity kept. Producer only.
func (p *SnapshotPool) AcquireWrite() *Snapshot {
	idx := p.writeIdx.Add(1) % 3
	snap := &p.snapshots[idx]
	snap.Players = snap.Players[:0]
	snap.Sequence = p.sequence.Add(1)
	return snap
}

// PublishWrite makes the just-written snapshot the one readers get.
func (p *SnapshotPool) PublishWrite() {
	p.readIdx.Store(p.writeIdx.Load())
}

// AcquireRead returns the latest published snapshot.
func (p *SnapshotPool) AcquireRead() *Snapshot {
	idx := p.readIdx.Load() % 3
	return &p.snapshots[idx]
}

// fillSnapshot populates snap from current engine state.
func (e *MatchEngine) fillSnapshot(snap *Snapshot) {
	snap.Tick = e.tick
	snap.Minute = e.minute()
	snap.Half = e.half
	snap.Phase = e.phase.String()
	snap.HomeGoals = e.score[TeamHome]
	snap.AwayGoals = e.score[TeamAway]
	snap.BallXM = e.ball.Pos.X.Meters()
	snap.BallYM = e.ball.Pos.Y.Meters()
	snap.BallHM = e.ball.Pos.H.Meters()
	snap.BallOwner = e.ball.Owner
	snap.BallMotion = e.ball.Motion.String()
	for i := range e.players {
		pl := &e.players[i]
		snap.Players = append(snap.Players, PlayerSnapshot{
			Slot:    pl.Slot,
			Name:    pl.Name,
			Team:    pl.Team().String(),
			Role:    pl.Role.String(),
			XM:      pl.Pos.X.Meters(),
			YM:      pl.Pos.Y.Meters(),
			Stamina: float64(pl.StaminaPPM) / staminaFullPPM,
			Booked:  pl.Booked,
			SentOff: pl.SentOff,
			Hero:    pl.Hero,
		})
	}
}

// ProduceSnapshot publishes the current state for feed consumers. Called by
// the engine owner after Step; not part of the deterministic record.
func (e *MatchEngine) ProduceSnapshot() {
	if e.snapshots == nil {
		return
	}
	snap := e.snapshots.AcquireWrite()
	e.fillSnapshot(snap)
	e.snapshots.PublishWrite()
}

// LatestSnapshot returns the most recently published snapshot, or nil if
// none was produced yet.
func (e *MatchEngine) LatestSnapshot() *Snapshot {
	if e.snapshots == nil {
		return nil
	}
	snap := e.snapshots.AcquireRead()
	if snap.Sequence == 0 {
		return nil
	}
	return snap
}
