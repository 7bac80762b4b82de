package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"matchday/internal/config"
	"matchday/internal/match"
	"matchday/internal/replay"
	"matchday/internal/scenario"
	"matchday/internal/store"
)

// simulate is the batch CLI: plan in, result out. No server, no pacing -
// every match runs as fast as the engine goes.
func main() {
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("../.env")
	}

	var (
		planPath   = flag.String("plan", "", "MatchPlan JSON file; empty uses the stock fixture")
		seed       = flag.Int64("seed", 1, "base random seed; batch runs use seed, seed+1, ...")
		count      = flag.Int("n", 1, "number of matches to simulate")
		trace      = flag.Bool("trace", false, "capture per-tick position traces")
		outPath    = flag.String("out", "", "write result JSON here; empty prints a summary only")
		dbPath     = flag.String("db", "", "archive results into this sqlite file")
		eventsPath = flag.String("events", "", "append all match events to this JSONL file")
		framesDir  = flag.String("frames", "", "dump PNG frames of the first match's trace here")
		frameEvery = flag.Int("every", 10, "render every nth trace frame")
		configPath = flag.String("config", "", "optional tuning file (YAML)")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	if *count < 1 {
		*count = 1
	}
	if *framesDir != "" {
		*trace = true
	}

	base, err := loadPlan(*planPath, *seed, cfg.Sim, *trace)
	if err != nil {
		log.Fatal().Err(err).Msg("load plan")
	}

	// Optional sinks, all strictly outside the tick loop.
	var archive *store.Store
	if *dbPath != "" {
		storeCfg := cfg.Store
		storeCfg.DBPath = *dbPath
		if archive, err = store.Open(storeCfg, log); err != nil {
			log.Fatal().Err(err).Msg("open archive")
		}
		defer archive.Close()
	}

	// -events wins; otherwise the configured event log dir, if any.
	journalPath := *eventsPath
	if journalPath == "" && cfg.Store.EventLogDir != "" {
		if err := os.MkdirAll(cfg.Store.EventLogDir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("create event log dir")
		}
		journalPath = filepath.Join(cfg.Store.EventLogDir, fmt.Sprintf("run_%d.jsonl", time.Now().Unix()))
	}

	var journal *store.EventJournal
	if journalPath != "" {
		journal = store.NewEventJournal()
		if err := journal.Start(journalPath); err != nil {
			log.Fatal().Err(err).Msg("open event journal")
		}
		defer journal.Stop()
	}

	start := time.Now()
	results := runBatch(base, *seed, *count, cfg.Sim.Workers, log)

	var homeWins, awayWins, draws, goals int
	for i := range results {
		res := &results[i]
		goals += res.HomeGoals + res.AwayGoals
		switch {
		case res.HomeGoals > res.AwayGoals:
			homeWins++
		case res.AwayGoals > res.HomeGoals:
			awayWins++
		default:
			draws++
		}

		var id uint
		if archive != nil {
			plan := base
			plan.Seed = res.Seed
			if id, err = archive.SaveResult(*res, plan); err != nil {
				log.Error().Err(err).Int64("seed", res.Seed).Msg("archive result")
			}
		}
		if journal != nil {
			for _, ev := range res.Events {
				journal.Record(id, ev)
			}
		}
	}

	log.Info().
		Int("matches", len(results)).
		Int("homeWins", homeWins).
		Int("draws", draws).
		Int("awayWins", awayWins).
		Float64("goalsPerMatch", float64(goals)/float64(len(results))).
		Dur("elapsed", time.Since(start)).
		Msg("simulation done")

	if journal != nil && journal.Dropped() > 0 {
		log.Warn().Uint64("dropped", journal.Dropped()).Msg("event journal overran")
	}

	if *outPath != "" {
		if err := writeResults(*outPath, results); err != nil {
			log.Fatal().Err(err).Msg("write results")
		}
		log.Info().Str("path", *outPath).Msg("results written")
	}

	if *framesDir != "" {
		n, err := replay.RenderResult(&results[0], *framesDir, *frameEvery, cfg.Replay.Width, cfg.Replay.Height)
		if err != nil {
			log.Fatal().Err(err).Msg("render frames")
		}
		log.Info().Int("frames", n).Str("dir", *framesDir).Msg("frames rendered")
	}
}

// loadPlan reads a plan file or falls back to the stock fixture, then
// applies configured defaults to whatever the plan leaves unset.
func loadPlan(path string, seed int64, sim config.SimConfig, trace bool) (match.MatchPlan, error) {
	plan := match.NewMatchPlan()
	if path == "" {
		plan = scenario.DefaultPlan(seed)
		plan.HalfTicks = 0 // fixture uses short halves; CLI runs regulation
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return plan, err
		}
		if err := json.Unmarshal(data, &plan); err != nil {
			return plan, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if plan.HalfTicks == 0 && sim.HalfMinutes > 0 && sim.HalfMinutes != 45 {
		plan.HalfTicks = uint32(sim.HalfMinutes) * 60 * match.TickHz
	}
	if plan.HomeDifficulty == 0 && sim.Difficulty > 0 {
		plan.HomeDifficulty = uint8(sim.Difficulty)
	}
	if plan.AwayDifficulty == 0 && sim.Difficulty > 0 {
		plan.AwayDifficulty = uint8(sim.Difficulty)
	}
	if trace || sim.Trace {
		plan.Capabilities.Trace = true
	}
	plan.Seed = seed
	return plan, plan.Validate()
}

// runBatch simulates count matches over a small worker pool. Each engine
// is confined to one goroutine; determinism holds per seed regardless of
// scheduling because engines share nothing.
func runBatch(base match.MatchPlan, seed int64, count, workers int, log zerolog.Logger) []match.MatchResult {
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	results := make([]match.MatchResult, count)
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				plan := base
				plan.Seed = seed + int64(i)
				eng, err := match.NewMatchEngine(plan)
				if err != nil {
					// Base plan validated up front; a failure here is a bug.
					log.Error().Err(err).Int64("seed", plan.Seed).Msg("engine construction")
					continue
				}
				results[i] = eng.Play()
			}
		}()
	}

	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func writeResults(path string, results []match.MatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}
