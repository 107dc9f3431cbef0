package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/volley-tournament/models"
)

var poolConstraints = map[string]error{
	"pools_tournament_id_fkey":               ErrTournamentInvalid,
	"pools_tournament_id_stage_key_name_key": ErrPoolNameConflict,
}

type postgresPoolRepository struct {
	exec SQLExecutor
}

const poolColumns = `id, tournament_id, stage_key, name, size, court, team_ids, updated_at`

func scanPool(scan func(dest ...any) error) (*models.Pool, error) {
	p := &models.Pool{}
	err := scan(&p.ID, &p.TournamentID, &p.StageKey, &p.Name, &p.Size, &p.Court, pq.Array(&p.TeamIDs), &p.UpdatedAt)
	return p, err
}

func (r *postgresPoolRepository) Create(ctx context.Context, pool *models.Pool) error {
	query := `
		INSERT INTO pools (id, tournament_id, stage_key, name, size, court, team_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING updated_at`

	err := r.exec.QueryRowContext(ctx, query,
		pool.ID, pool.TournamentID, pool.StageKey, pool.Name, pool.Size, pool.Court, textArray(pool.TeamIDs),
	).Scan(&pool.UpdatedAt)
	return constraintError(err, poolConstraints)
}

func (r *postgresPoolRepository) GetByID(ctx context.Context, id string) (*models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE id = $1`
	p, err := scanPool(r.exec.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to scan pool by id %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresPoolRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE tournament_id = $1 ORDER BY stage_key ASC, name ASC`
	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pools for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	pools := make([]*models.Pool, 0)
	for rows.Next() {
		p, err := scanPool(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pool row: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pool rows iteration: %w", err)
	}
	return pools, nil
}

func (r *postgresPoolRepository) UpdateTeams(ctx context.Context, id string, teamIDs []string) error {
	query := `UPDATE pools SET team_ids = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.exec.ExecContext(ctx, query, textArray(teamIDs), id)
	if err != nil {
		return fmt.Errorf("failed to update teams of pool %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}
