package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/volley-tournament/models"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrPoolNotFound       = errors.New("pool not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlanNotFound       = errors.New("schedule plan not found")
	ErrScoreboardNotFound = errors.New("scoreboard not found")
	ErrOverrideNotFound   = errors.New("override not found")

	ErrDuplicateSlot      = errors.New("a match already exists for this slot")
	ErrTournamentInvalid  = errors.New("tournament reference invalid")
	ErrMatchInvalid       = errors.New("match reference invalid")
	ErrPoolNameConflict   = errors.New("pool name already used in this stage")
	ErrScoreboardConflict = errors.New("scoreboard already exists for this match")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error)
}

type PoolRepository interface {
	Create(ctx context.Context, pool *models.Pool) error
	GetByID(ctx context.Context, id string) (*models.Pool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Pool, error)
	UpdateTeams(ctx context.Context, id string, teamIDs []string) error
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	GetBySlotID(ctx context.Context, tournamentID, slotID string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error)
	// Update replaces every mutable field of the stored match.
	Update(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id string) error
}

type PlanRepository interface {
	Get(ctx context.Context, tournamentID string) (*models.SchedulePlan, error)
	Save(ctx context.Context, plan *models.SchedulePlan) error
}

type OverrideRepository interface {
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Override, error)
	Upsert(ctx context.Context, o *models.Override) error
	Delete(ctx context.Context, tournamentID, scopeKey string) error
}

type ScoreboardRepository interface {
	Create(ctx context.Context, sb *models.Scoreboard) error
	GetByMatch(ctx context.Context, matchID string) (*models.Scoreboard, error)
	SaveSets(ctx context.Context, matchID string, sets []models.SetScore) error
	DeleteByMatch(ctx context.Context, matchID string) error
}

// Store groups the repositories of one tournament database. Repositories obtained
// from the Store passed to RunInTx's fn share its transaction.
type Store interface {
	Tournaments() TournamentRepository
	Teams() TeamRepository
	Pools() PoolRepository
	Matches() MatchRepository
	Plans() PlanRepository
	Overrides() OverrideRepository
	Scoreboards() ScoreboardRepository

	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}
