package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/volley-tournament/models"
)

var matchConstraints = map[string]error{
	"matches_tournament_id_fkey":        ErrTournamentInvalid,
	"matches_tournament_id_slot_id_key": ErrDuplicateSlot,
	"matches_team_a_id_fkey":            ErrMatchInvalid,
	"matches_team_b_id_fkey":            ErrMatchInvalid,
}

type postgresMatchRepository struct {
	exec SQLExecutor
}

const matchColumns = `
	id, tournament_id, slot_id, stage_key, pool_id, bracket, bracket_round, bracket_match, match_key,
	round_block, court, team_a_id, team_b_id, source_a, source_b, referee_ids, bye_team_ids,
	status, started_at, ended_at, finalized_at, result, created_at, updated_at`

func scanMatch(scan func(dest ...any) error) (*models.Match, error) {
	m := &models.Match{}
	var (
		poolID, bracket, matchKey  sql.NullString
		bracketRound, bracketMatch sql.NullInt64
		sourceA, sourceB, result   []byte
	)
	err := scan(
		&m.ID, &m.TournamentID, &m.SlotID, &m.StageKey, &poolID, &bracket, &bracketRound, &bracketMatch, &matchKey,
		&m.RoundBlock, &m.Court, &m.TeamAID, &m.TeamBID, &sourceA, &sourceB,
		pq.Array(&m.RefereeIDs), pq.Array(&m.ByeTeamIDs),
		&m.Status, &m.StartedAt, &m.EndedAt, &m.FinalizedAt, &result, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.PoolID = poolID.String
	m.Bracket = bracket.String
	m.MatchKey = matchKey.String
	m.BracketRound = int(bracketRound.Int64)
	m.BracketMatch = int(bracketMatch.Int64)

	if m.SourceA, err = decodeJSON[models.MatchSource](sourceA); err != nil {
		return nil, fmt.Errorf("failed to decode source_a of match %s: %w", m.ID, err)
	}
	if m.SourceB, err = decodeJSON[models.MatchSource](sourceB); err != nil {
		return nil, fmt.Errorf("failed to decode source_b of match %s: %w", m.ID, err)
	}
	if m.Result, err = decodeJSON[models.Result](result); err != nil {
		return nil, fmt.Errorf("failed to decode result of match %s: %w", m.ID, err)
	}
	return m, nil
}

// matchArgs returns the values of every column after id, in matchColumns order up to updated_at.
func matchArgs(m *models.Match) ([]any, error) {
	sourceA, err := jsonValue(m.SourceA)
	if err != nil {
		return nil, err
	}
	sourceB, err := jsonValue(m.SourceB)
	if err != nil {
		return nil, err
	}
	result, err := jsonValue(m.Result)
	if err != nil {
		return nil, err
	}
	nullString := func(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }
	nullInt := func(n int) sql.NullInt64 { return sql.NullInt64{Int64: int64(n), Valid: n != 0} }

	return []any{
		m.TournamentID, m.SlotID, m.StageKey, nullString(m.PoolID), nullString(m.Bracket),
		nullInt(m.BracketRound), nullInt(m.BracketMatch), nullString(m.MatchKey),
		m.RoundBlock, m.Court, m.TeamAID, m.TeamBID, sourceA, sourceB,
		textArray(m.RefereeIDs), textArray(m.ByeTeamIDs),
		m.Status, m.StartedAt, m.EndedAt, m.FinalizedAt, result,
	}, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args, err := matchArgs(match)
	if err != nil {
		return fmt.Errorf("failed to encode match %s: %w", match.ID, err)
	}
	query := `
		INSERT INTO matches (
			id, tournament_id, slot_id, stage_key, pool_id, bracket, bracket_round, bracket_match, match_key,
			round_block, court, team_a_id, team_b_id, source_a, source_b, referee_ids, bye_team_ids,
			status, started_at, ended_at, finalized_at, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at, updated_at`

	err = r.exec.QueryRowContext(ctx, query, append([]any{match.ID}, args...)...).
		Scan(&match.CreatedAt, &match.UpdatedAt)
	return constraintError(err, matchConstraints)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.exec.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) GetBySlotID(ctx context.Context, tournamentID, slotID string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND slot_id = $2`
	m, err := scanMatch(r.exec.QueryRowContext(ctx, query, tournamentID, slotID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by slot %s: %w", slotID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round_block ASC, slot_id ASC`
	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	args, err := matchArgs(match)
	if err != nil {
		return fmt.Errorf("failed to encode match %s: %w", match.ID, err)
	}
	query := `
		UPDATE matches SET
			tournament_id = $1, slot_id = $2, stage_key = $3, pool_id = $4, bracket = $5, bracket_round = $6,
			bracket_match = $7, match_key = $8, round_block = $9, court = $10, team_a_id = $11, team_b_id = $12,
			source_a = $13, source_b = $14, referee_ids = $15, bye_team_ids = $16, status = $17,
			started_at = $18, ended_at = $19, finalized_at = $20, result = $21, updated_at = NOW()
		WHERE id = $22`

	result, err := r.exec.ExecContext(ctx, query, append(args, match.ID)...)
	if err != nil {
		return constraintError(err, matchConstraints)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
