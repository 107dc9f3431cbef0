package repositories

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/volley-tournament/models"
)

type postgresOverrideRepository struct {
	exec SQLExecutor
}

func (r *postgresOverrideRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Override, error) {
	query := `SELECT tournament_id, scope_key, team_ids FROM standings_overrides WHERE tournament_id = $1 ORDER BY scope_key`
	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	overrides := make([]*models.Override, 0)
	for rows.Next() {
		var o models.Override
		if err := rows.Scan(&o.TournamentID, &o.ScopeKey, pq.Array(&o.TeamIDs)); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		overrides = append(overrides, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during override rows iteration: %w", err)
	}
	return overrides, nil
}

func (r *postgresOverrideRepository) Upsert(ctx context.Context, o *models.Override) error {
	query := `
		INSERT INTO standings_overrides (tournament_id, scope_key, team_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id, scope_key) DO UPDATE SET team_ids = EXCLUDED.team_ids`

	_, err := r.exec.ExecContext(ctx, query, o.TournamentID, o.ScopeKey, textArray(o.TeamIDs))
	if err != nil {
		return constraintError(err, map[string]error{"standings_overrides_tournament_id_fkey": ErrTournamentInvalid})
	}
	return nil
}

func (r *postgresOverrideRepository) Delete(ctx context.Context, tournamentID, scopeKey string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM standings_overrides WHERE tournament_id = $1 AND scope_key = $2`, tournamentID, scopeKey)
	if err != nil {
		return fmt.Errorf("failed to delete override %s: %w", scopeKey, err)
	}
	return checkAffectedRows(result, ErrOverrideNotFound)
}
