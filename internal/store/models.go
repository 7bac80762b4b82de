package store

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"matchday/internal/match"
)

// DatabaseModels is a list of all the structs exported here which represent
// tables in the archive schema
var DatabaseModels = []interface{}{
	&MatchRow{},
	&EventRow{},
	&TeamStatRow{},
}

// MatchRow is one archived match.
type MatchRow struct {
	gorm.Model
	HomeTeam  string         `json:"homeTeam" gorm:"size:127"`
	AwayTeam  string         `json:"awayTeam" gorm:"size:127"`
	HomeGoals int            `json:"homeGoals"`
	AwayGoals int            `json:"awayGoals"`
	Seed      int64          `json:"seed" gorm:"index:idx_matches_seed"`
	HalfTicks uint32         `json:"halfTicks"`
	Plan      datatypes.JSON `json:"plan,omitempty"`
	Trace     datatypes.JSON `json:"trace,omitempty"`
}

func (*MatchRow) TableName() string {
	return "matches"
}

// EventRow is one timeline entry. Rows are bulk-inserted once per archived
// match and never updated.
type EventRow struct {
	gorm.Model
	MatchID uint           `json:"matchId" gorm:"index:idx_events_match_id"`
	Match   MatchRow       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID"`
	Seq     uint32         `json:"seq"`
	Tick    uint32         `json:"tick"`
	Minute  uint16         `json:"minute"`
	Kind    uint8          `json:"kind"`
	KindStr string         `json:"kindStr" gorm:"size:32;index:idx_events_kind"`
	Team    uint8          `json:"team"`
	Player  int8           `json:"player"`
	Payload datatypes.JSON `json:"payload,omitempty"`
}

func (*EventRow) TableName() string {
	return "match_events"
}

// TeamStatRow is one side's final stat block for an archived match.
type TeamStatRow struct {
	gorm.Model
	MatchID uint            `json:"matchId" gorm:"index:idx_team_stats_match_id"`
	Match   MatchRow        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID"`
	Team    uint8           `json:"team"`
	Stats   match.TeamStats `json:"stats" gorm:"embedded;embeddedPrefix:stat_"`
}

func (*TeamStatRow) TableName() string {
	return "team_stats"
}
