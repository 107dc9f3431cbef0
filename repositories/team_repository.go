package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/volley-tournament/models"
)

var teamConstraints = map[string]error{
	"teams_tournament_id_fkey": ErrTournamentInvalid,
}

type postgresTeamRepository struct {
	exec SQLExecutor
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (id, tournament_id, name, short_name, seed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.exec.QueryRowContext(ctx, query,
		team.ID, team.TournamentID, team.Name, team.ShortName, team.Seed,
	).Scan(&team.CreatedAt)
	return constraintError(err, teamConstraints)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, tournament_id, name, short_name, seed, created_at
		FROM teams
		WHERE id = $1`

	team := &models.Team{}
	err := r.exec.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.TournamentID, &team.Name, &team.ShortName, &team.Seed, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %s: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	query := `
		SELECT id, tournament_id, name, short_name, seed, created_at
		FROM teams
		WHERE tournament_id = $1
		ORDER BY seed ASC, id ASC`

	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.TournamentID, &team.Name, &team.ShortName, &team.Seed, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, &team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}
