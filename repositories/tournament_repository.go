package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/volley-tournament/models"
)

type postgresTournamentRepository struct {
	exec SQLExecutor
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (id, name, format_id, courts, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.exec.QueryRowContext(ctx, query,
		t.ID, t.Name, t.FormatID, textArray(t.Courts), t.Status,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `
		SELECT id, name, format_id, courts, status, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.exec.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.FormatID, pq.Array(&t.Courts), &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament status %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
