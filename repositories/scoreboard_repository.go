package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/volley-tournament/models"
)

var scoreboardConstraints = map[string]error{
	"scoreboards_match_id_fkey": ErrMatchInvalid,
	"scoreboards_match_id_key":  ErrScoreboardConflict,
}

type postgresScoreboardRepository struct {
	exec SQLExecutor
}

func encodeSets(sets []models.SetScore) (string, error) {
	if sets == nil {
		sets = []models.SetScore{}
	}
	data, err := json.Marshal(sets)
	return string(data), err
}

func (r *postgresScoreboardRepository) Create(ctx context.Context, sb *models.Scoreboard) error {
	sets, err := encodeSets(sb.Sets)
	if err != nil {
		return fmt.Errorf("failed to encode scoreboard sets: %w", err)
	}
	query := `
		INSERT INTO scoreboards (id, match_id, tournament_id, sets)
		VALUES ($1, $2, $3, $4)
		RETURNING updated_at`
	err = r.exec.QueryRowContext(ctx, query, sb.ID, sb.MatchID, sb.TournamentID, sets).Scan(&sb.UpdatedAt)
	return constraintError(err, scoreboardConstraints)
}

func (r *postgresScoreboardRepository) GetByMatch(ctx context.Context, matchID string) (*models.Scoreboard, error) {
	query := `SELECT id, match_id, tournament_id, sets, updated_at FROM scoreboards WHERE match_id = $1`
	sb := &models.Scoreboard{}
	var sets []byte
	err := r.exec.QueryRowContext(ctx, query, matchID).Scan(&sb.ID, &sb.MatchID, &sb.TournamentID, &sets, &sb.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoreboardNotFound
		}
		return nil, fmt.Errorf("failed to scan scoreboard of match %s: %w", matchID, err)
	}
	if err := json.Unmarshal(sets, &sb.Sets); err != nil {
		return nil, fmt.Errorf("failed to decode scoreboard sets of match %s: %w", matchID, err)
	}
	return sb, nil
}

// SaveSets replaces the set history of a match; an empty list resets it.
func (r *postgresScoreboardRepository) SaveSets(ctx context.Context, matchID string, sets []models.SetScore) error {
	encoded, err := encodeSets(sets)
	if err != nil {
		return fmt.Errorf("failed to encode scoreboard sets: %w", err)
	}
	result, err := r.exec.ExecContext(ctx, `UPDATE scoreboards SET sets = $1, updated_at = NOW() WHERE match_id = $2`, encoded, matchID)
	if err != nil {
		return fmt.Errorf("failed to save scoreboard of match %s: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrScoreboardNotFound)
}

func (r *postgresScoreboardRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM scoreboards WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete scoreboard of match %s: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrScoreboardNotFound)
}
