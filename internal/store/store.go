// Package store archives finished matches in SQLite and serves them back to
// the API layer. All persistence goes through GORM with the pure-Go sqlite
// driver, so the daemon builds without cgo.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"matchday/internal/config"
	"matchday/internal/match"
)

// ErrNotFound is returned when an archive lookup misses.
var ErrNotFound = errors.New("store: not found")

// ErrNoTrace is returned when a match was simulated without trace capture.
var ErrNoTrace = errors.New("store: match has no trace")

// Store is the match archive.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the SQLite archive at cfg.DBPath and migrates the schema.
// The special path ":memory:" keeps the whole archive in RAM.
func Open(cfg config.StoreConfig, log zerolog.Logger) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		return nil, errors.New("store: empty database path")
	}
	if path == ":memory:" {
		path = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.DBPath, err)
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("store: error setting PRAGMA: %w", err)
		}
	}

	if err := db.AutoMigrate(DatabaseModels...); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	log.Info().Str("path", cfg.DBPath).Msg("match archive ready")
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveResult archives one finished match together with its timeline, both
// stat blocks and, when captured, the movement trace. It returns the archive
// ID of the new match row.
func (s *Store) SaveResult(res match.MatchResult, plan match.MatchPlan) (uint, error) {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("store: encode plan: %w", err)
	}

	row := MatchRow{
		HomeTeam:  res.HomeTeam,
		AwayTeam:  res.AwayTeam,
		HomeGoals: res.HomeGoals,
		AwayGoals: res.AwayGoals,
		Seed:      res.Seed,
		HalfTicks: plan.HalfTicks,
		Plan:      datatypes.JSON(planJSON),
	}
	if res.Trace != nil {
		traceJSON, err := json.Marshal(res.Trace)
		if err != nil {
			return 0, fmt.Errorf("store: encode trace: %w", err)
		}
		row.Trace = datatypes.JSON(traceJSON)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if len(res.Events) > 0 {
			events := make([]EventRow, 0, len(res.Events))
			for _, ev := range res.Events {
				events = append(events, EventRow{
					MatchID: row.ID,
					Seq:     ev.Seq,
					Tick:    ev.Tick,
					Minute:  ev.Minute,
					Kind:    uint8(ev.Kind),
					KindStr: ev.KindStr,
					Team:    uint8(ev.Team),
					Player:  ev.Player,
					Payload: datatypes.JSON(ev.Payload),
				})
			}
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}

		stats := []TeamStatRow{
			{MatchID: row.ID, Team: uint8(match.TeamHome), Stats: res.Stats.Home},
			{MatchID: row.ID, Team: uint8(match.TeamAway), Stats: res.Stats.Away},
		}
		return tx.Create(&stats).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store: save %s vs %s: %w", res.HomeTeam, res.AwayTeam, err)
	}

	s.log.Info().
		Uint("id", row.ID).
		Str("home", res.HomeTeam).
		Str("away", res.AwayTeam).
		Int("events", len(res.Events)).
		Msg("match archived")

	return row.ID, nil
}

// GetMatch returns one archived match header by ID.
func (s *Store) GetMatch(id uint) (MatchRow, error) {
	var row MatchRow
	if err := s.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MatchRow{}, fmt.Errorf("match %d: %w", id, ErrNotFound)
		}
		return MatchRow{}, err
	}
	return row, nil
}

// ListMatches returns up to limit archived matches, newest first. The plan
// and trace blobs are omitted from list rows.
func (s *Store) ListMatches(limit, offset int) ([]MatchRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []MatchRow
	err := s.db.
		Omit("Plan", "Trace").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// CountMatches reports how many matches the archive holds.
func (s *Store) CountMatches() (int64, error) {
	var n int64
	err := s.db.Model(&MatchRow{}).Count(&n).Error
	return n, err
}

// EventsFor returns a match's full timeline in emission order.
func (s *Store) EventsFor(matchID uint) ([]EventRow, error) {
	var rows []EventRow
	err := s.db.
		Where("match_id = ?", matchID).
		Order("seq ASC").
		Find(&rows).Error
	return rows, err
}

// StatsFor returns both stat blocks of one match, home side first.
func (s *Store) StatsFor(matchID uint) ([]TeamStatRow, error) {
	var rows []TeamStatRow
	err := s.db.
		Where("match_id = ?", matchID).
		Order("team ASC").
		Find(&rows).Error
	return rows, err
}

// PlanFor decodes the plan an archived match was simulated from, so the
// match can be re-run under its original seed.
func (s *Store) PlanFor(matchID uint) (match.MatchPlan, error) {
	row, err := s.GetMatch(matchID)
	if err != nil {
		return match.MatchPlan{}, err
	}
	var plan match.MatchPlan
	if err := json.Unmarshal(row.Plan, &plan); err != nil {
		return match.MatchPlan{}, fmt.Errorf("store: decode plan: %w", err)
	}
	return plan, nil
}

// TraceFor decodes the movement trace of one archived match.
func (s *Store) TraceFor(matchID uint) (*match.Trace, error) {
	row, err := s.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if len(row.Trace) == 0 {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNoTrace)
	}
	var tr match.Trace
	if err := json.Unmarshal(row.Trace, &tr); err != nil {
		return nil, fmt.Errorf("store: decode trace: %w", err)
	}
	return &tr, nil
}
