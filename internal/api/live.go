package api

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"matchday/internal/match"
	"matchday/internal/store"
)

// ErrLiveRunning is returned when a live match is started while one is
// already being simulated.
var ErrLiveRunning = errors.New("api: a live match is already running")

// LiveRunner paces one engine at real match speed so spectators can follow
// it over the feed. The engine itself stays single-threaded: exactly one
// goroutine owns it and calls Step; everyone else reads published
// snapshots. At most one live match runs at a time.
type LiveRunner struct {
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// engine is owned by the runner goroutine while running. Readers go
	// through the snapshot pool, never through engine state directly.
	engine *match.MatchEngine
	plan   match.MatchPlan

	archive   *store.Store
	journal   *store.EventJournal
	telemetry match.Telemetry
	log       zerolog.Logger

	lastResult *match.MatchResult
	lastID     uint
}

// NewLiveRunner builds an idle runner. archive may be nil; finished live
// matches are then discarded after their final snapshot. journal may be
// nil; finished matches then leave no JSONL record.
func NewLiveRunner(archive *store.Store, journal *store.EventJournal, telemetry match.Telemetry, log zerolog.Logger) *LiveRunner {
	if telemetry == nil {
		telemetry = match.NopTelemetry{}
	}
	return &LiveRunner{
		archive:   archive,
		journal:   journal,
		telemetry: telemetry,
		log:       log,
	}
}

// Start validates the plan, constructs the engine and begins paced
// stepping at the engine's tick rate.
func (lr *LiveRunner) Start(plan match.MatchPlan) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.running {
		return ErrLiveRunning
	}

	eng, err := match.NewMatchEngine(plan, match.WithTelemetry(lr.telemetry))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	lr.engine = eng
	lr.plan = plan
	lr.cancel = cancel
	lr.done = make(chan struct{})
	lr.running = true

	go lr.run(ctx, eng, plan)

	lr.log.Info().
		Str("home", plan.Home.Name).
		Str("away", plan.Away.Name).
		Int64("seed", plan.Seed).
		Msg("live match started")
	return nil
}

// run is the single goroutine that owns the engine until full time.
func (lr *LiveRunner) run(ctx context.Context, eng *match.MatchEngine, plan match.MatchPlan) {
	defer lr.finish(eng, plan)

	// One tick per limiter token: real match speed.
	limiter := rate.NewLimiter(rate.Limit(match.TickHz), 1)
	for !eng.Done() {
		if err := limiter.Wait(ctx); err != nil {
			// Cancelled: fast-forward so the record still reaches full
			// time and the result is archivable.
			for !eng.Done() {
				eng.Step()
			}
			break
		}
		eng.Step()
		eng.ProduceSnapshot()
	}
}

// finish archives the result and releases the running slot.
func (lr *LiveRunner) finish(eng *match.MatchEngine, plan match.MatchPlan) {
	eng.ProduceSnapshot()
	res := eng.Result()
	RecordMatchDone()

	var id uint
	if lr.archive != nil {
		var err error
		if id, err = lr.archive.SaveResult(res, plan); err != nil {
			lr.log.Error().Err(err).Msg("archive live match")
		}
	}
	if lr.journal != nil {
		for _, ev := range res.Events {
			lr.journal.Record(id, ev)
		}
	}

	lr.mu.Lock()
	lr.running = false
	lr.lastResult = &res
	lr.lastID = id
	close(lr.done)
	lr.mu.Unlock()

	h, a := res.HomeGoals, res.AwayGoals
	lr.log.Info().
		Str("home", res.HomeTeam).
		Str("away", res.AwayTeam).
		Int("homeGoals", h).
		Int("awayGoals", a).
		Msg("live match finished")
}

// Stop cancels pacing. The match is fast-forwarded to full time so its
// record stays complete, then archived as usual. Stop blocks until done.
func (lr *LiveRunner) Stop() {
	lr.mu.Lock()
	if !lr.running {
		lr.mu.Unlock()
		return
	}
	cancel, done := lr.cancel, lr.done
	lr.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether a live match is in progress.
func (lr *LiveRunner) Running() bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.running
}

// LatestSnapshot returns the newest published snapshot of the live match,
// or nil when nothing has been published.
func (lr *LiveRunner) LatestSnapshot() *match.Snapshot {
	lr.mu.Lock()
	eng := lr.engine
	lr.mu.Unlock()
	if eng == nil {
		return nil
	}
	return eng.LatestSnapshot()
}

// Status summarizes the runner for the status endpoint. Everything comes
// from published snapshots and runner bookkeeping, never live engine state.
func (lr *LiveRunner) Status() map[string]interface{} {
	lr.mu.Lock()
	running := lr.running
	lastID := lr.lastID
	last := lr.lastResult
	lr.mu.Unlock()

	st := map[string]interface{}{
		"running": running,
	}
	if snap := lr.LatestSnapshot(); snap != nil {
		st["tick"] = snap.Tick
		st["minute"] = snap.Minute
		st["half"] = snap.Half
		st["phase"] = snap.Phase
		st["homeGoals"] = snap.HomeGoals
		st["awayGoals"] = snap.AwayGoals
	}
	if !running && last != nil {
		st["lastMatchId"] = lastID
		st["lastScore"] = map[string]int{"home": last.HomeGoals, "away": last.AwayGoals}
	}
	return st
}
