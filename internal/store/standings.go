package store

// StandingRow is one team's aggregate line across every archived match.
// Standard league scoring: three points for a win, one for a draw.
type StandingRow struct {
	Team         string `json:"team"`
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	GoalsFor     int    `json:"goalsFor"`
	GoalsAgainst int    `json:"goalsAgainst"`
	Points       int    `json:"points"`
}

// Standings folds the whole archive into a league table, best record
// first. Each side of every match contributes one appearance.
func (s *Store) Standings() ([]StandingRow, error) {
	const q = `
		SELECT team,
		       COUNT(*)                                        AS played,
		       SUM(CASE WHEN gf > ga THEN 1 ELSE 0 END)        AS won,
		       SUM(CASE WHEN gf = ga THEN 1 ELSE 0 END)        AS drawn,
		       SUM(CASE WHEN gf < ga THEN 1 ELSE 0 END)        AS lost,
		       SUM(gf)                                         AS goals_for,
		       SUM(ga)                                         AS goals_against,
		       SUM(CASE WHEN gf > ga THEN 3 WHEN gf = ga THEN 1 ELSE 0 END) AS points
		FROM (
			SELECT home_team AS team, home_goals AS gf, away_goals AS ga
			FROM matches WHERE deleted_at IS NULL
			UNION ALL
			SELECT away_team AS team, away_goals AS gf, home_goals AS ga
			FROM matches WHERE deleted_at IS NULL
		)
		GROUP BY team
		ORDER BY points DESC, (SUM(gf) - SUM(ga)) DESC, SUM(gf) DESC, team ASC`

	var rows []StandingRow
	err := s.db.Raw(q).Scan(&rows).Error
	return rows, err
}
