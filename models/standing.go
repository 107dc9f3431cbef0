package models

// TieBreak records which rule placed a team relative to its equals.
type TieBreak string

const (
	TieBreakNone       TieBreak = ""
	TieBreakHeadToHead TieBreak = "head_to_head"
	TieBreakOverride   TieBreak = "override"
	TieBreakIdentity   TieBreak = "identity"
)

type StandingsEntry struct {
	TeamID            string   `json:"team_id"`
	TeamName          string   `json:"team_name"`
	MatchesPlayed     int      `json:"matches_played"`
	MatchesWon        int      `json:"matches_won"`
	MatchesLost       int      `json:"matches_lost"`
	SetsWon           int      `json:"sets_won"`
	SetsLost          int      `json:"sets_lost"`
	SetsPlayed        int      `json:"sets_played"`
	SetPercentage     float64  `json:"set_percentage"`
	PointsFor         int      `json:"points_for"`
	PointsAgainst     int      `json:"points_against"`
	PointDifferential int      `json:"point_differential"`
	Rank              int      `json:"rank"`
	TieBreak          TieBreak `json:"tie_break,omitempty"`
}

// Override is an administrator-supplied team order for a standings scope (a pool,
// or the overall ranking of a stage). It only breaks ties that survive every other rule.
type Override struct {
	TournamentID string   `json:"tournament_id" db:"tournament_id"`
	ScopeKey     string   `json:"scope_key" db:"scope_key"`
	TeamIDs      []string `json:"team_ids" db:"team_ids"`
}
