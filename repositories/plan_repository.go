package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/volley-tournament/models"
)

type postgresPlanRepository struct {
	exec SQLExecutor
}

func (r *postgresPlanRepository) Get(ctx context.Context, tournamentID string) (*models.SchedulePlan, error) {
	query := `SELECT tournament_id, hash, document, updated_at FROM schedule_plans WHERE tournament_id = $1`
	plan := &models.SchedulePlan{}
	var doc string
	err := r.exec.QueryRowContext(ctx, query, tournamentID).Scan(&plan.TournamentID, &plan.Hash, &doc, &plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to scan schedule plan of tournament %s: %w", tournamentID, err)
	}
	plan.Document = []byte(doc)
	return plan, nil
}

// Save stores the plan as a whole document, replacing the previous one.
func (r *postgresPlanRepository) Save(ctx context.Context, plan *models.SchedulePlan) error {
	query := `
		INSERT INTO schedule_plans (tournament_id, hash, document, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tournament_id) DO UPDATE
		SET hash = EXCLUDED.hash, document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`

	_, err := r.exec.ExecContext(ctx, query, plan.TournamentID, plan.Hash, string(plan.Document), plan.UpdatedAt)
	if err != nil {
		return constraintError(err, map[string]error{"schedule_plans_tournament_id_fkey": ErrTournamentInvalid})
	}
	return nil
}
