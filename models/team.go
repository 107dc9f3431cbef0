package models

import "time"

type Team struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	ShortName    string    `json:"short_name,omitempty" db:"short_name"`
	Seed         int       `json:"seed" db:"seed"` // registration order, not a bracket seed
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TeamIndex maps team ids to teams.
func TeamIndex(teams []*Team) map[string]*Team {
	index := make(map[string]*Team, len(teams))
	for _, t := range teams {
		if t != nil {
			index[t.ID] = t
		}
	}
	return index
}
