package models

import "time"

// Scoreboard is the per-set score history supplied by the live-score subsystem.
type Scoreboard struct {
	ID           string     `json:"id" db:"id"`
	MatchID      string     `json:"match_id" db:"match_id"`
	TournamentID string     `json:"tournament_id" db:"tournament_id"`
	Sets         []SetScore `json:"sets" db:"sets"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
