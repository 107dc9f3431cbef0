package models

import "time"

type TournamentStatus string

const (
	StatusSetup     TournamentStatus = "setup"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID        string           `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	FormatID  string           `json:"format_id" db:"format_id"`
	Courts    []string         `json:"courts" db:"courts"`
	Status    TournamentStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	Format *Format `json:"format,omitempty" db:"-"`
}
