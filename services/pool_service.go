package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/volley-tournament/broadcast"
	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
)

type PoolService interface {
	ListPools(ctx context.Context, tournamentID string) ([]*models.Pool, error)
	// AssignTeams replaces a pool roster; the order is the roster order used by
	// the round robin template.
	AssignTeams(ctx context.Context, poolID string, teamIDs []string) (*SyncResult, error)
}

type poolService struct {
	*Engine
}

func NewPoolService(e *Engine) PoolService {
	return &poolService{Engine: e}
}

func (s *poolService) ListPools(ctx context.Context, tournamentID string) ([]*models.Pool, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, storeError(err)
	}
	return s.store.Pools().ListByTournament(ctx, tournamentID)
}

func (s *poolService) AssignTeams(ctx context.Context, poolID string, teamIDs []string) (*SyncResult, error) {
	pool, err := s.store.Pools().GetByID(ctx, poolID)
	if err != nil {
		return nil, storeError(err)
	}

	return s.mutate(ctx, pool.TournamentID, "assign_teams", true, func(ctx context.Context, tx repositories.Store) error {
		pool, err := tx.Pools().GetByID(ctx, poolID)
		if err != nil {
			return storeError(err)
		}
		if len(teamIDs) > pool.Size {
			return fmt.Errorf("%w: %d teams for a pool of %d", ErrRosterTooLarge, len(teamIDs), pool.Size)
		}

		teams, err := tx.Teams().ListByTournament(ctx, pool.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		known := models.TeamIndex(teams)
		seen := make(map[string]bool, len(teamIDs))
		for _, id := range teamIDs {
			if seen[id] {
				return fmt.Errorf("%w: %s", ErrDuplicateTeam, id)
			}
			seen[id] = true
			if _, ok := known[id]; !ok {
				return fmt.Errorf("%w: %s", ErrForeignTeam, id)
			}
		}

		pools, err := tx.Pools().ListByTournament(ctx, pool.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to load pools: %w", err)
		}
		for _, other := range pools {
			if other.ID == pool.ID || other.StageKey != pool.StageKey {
				continue
			}
			for _, id := range other.TeamIDs {
				if seen[id] {
					return fmt.Errorf("%w: %s is in pool %s", ErrTeamInAnotherPool, id, other.Name)
				}
			}
		}

		matches, err := tx.Matches().ListByTournament(ctx, pool.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		for _, m := range matches {
			if m.PoolID == pool.ID && m.Status != models.MatchScheduled {
				return ErrPoolLocked
			}
		}

		if err := tx.Pools().UpdateTeams(ctx, pool.ID, teamIDs); err != nil {
			return fmt.Errorf("failed to update pool %s: %w", pool.ID, err)
		}
		broadcast.Emit(ctx, s.notifier, broadcast.Event{
			Signal:       broadcast.SignalPoolsChanged,
			TournamentID: pool.TournamentID,
			Payload:      map[string]any{"pool_id": pool.ID, "stage_key": pool.StageKey, "team_ids": teamIDs},
			At:           s.now(),
		})
		return nil
	})
}
