package models

import "time"

// Pool is one round-robin group of a pool-play stage. TeamIDs is roster order.
type Pool struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	StageKey     string    `json:"stage_key" db:"stage_key"`
	Name         string    `json:"name" db:"name"`
	Size         int       `json:"size" db:"size"`
	Court        string    `json:"court" db:"court"`
	TeamIDs      []string  `json:"team_ids" db:"team_ids"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsFull reports whether every roster position of the pool has a team.
func (p *Pool) IsFull() bool {
	if p == nil || len(p.TeamIDs) != p.Size {
		return false
	}
	for _, id := range p.TeamIDs {
		if id == "" {
			return false
		}
	}
	return true
}

// TeamAt returns the team at the 0-based roster position, or "" when unassigned.
func (p *Pool) TeamAt(position int) string {
	if p == nil || position < 0 || position >= len(p.TeamIDs) {
		return ""
	}
	return p.TeamIDs[position]
}
