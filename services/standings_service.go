package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
	"github.com/Dosada05/volley-tournament/schedule"
)

// Standings is a ranked scope. Complete is false while a match of the scope
// is not final, in which case the ranks are provisional.
type Standings struct {
	Scope    string                  `json:"scope"`
	Complete bool                    `json:"complete"`
	Entries  []models.StandingsEntry `json:"entries"`
	Override []string                `json:"override,omitempty"`
}

type StandingsService interface {
	// GetStandings ranks a pool ("stage/pool") or a stage ("stage").
	GetStandings(ctx context.Context, tournamentID, scope string) (*Standings, error)
	SetOverride(ctx context.Context, tournamentID, scope string, teamIDs []string) (*SyncResult, error)
	ClearOverride(ctx context.Context, tournamentID, scope string) (*SyncResult, error)
}

type standingsService struct {
	*Engine
}

func NewStandingsService(e *Engine) StandingsService {
	return &standingsService{Engine: e}
}

func (s *standingsService) GetStandings(ctx context.Context, tournamentID, scope string) (*Standings, error) {
	r, st, snap, err := s.resolver(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if _, err := scopeRoster(st.Format, snap, scope); err != nil {
		return nil, err
	}

	out := &Standings{Scope: scope}
	if stage, pool, ok := strings.Cut(scope, "/"); ok {
		out.Entries, out.Complete = r.PoolStandings(stage, pool)
	} else {
		out.Entries, out.Complete = r.StageStandings(scope)
	}
	for _, o := range snap.Overrides {
		if o.ScopeKey == scope {
			out.Override = o.TeamIDs
		}
	}
	return out, nil
}

// SetOverride stores the administrator order of a scope. It only decides ties
// that head-to-head leaves open, and only when it names every tied team.
func (s *standingsService) SetOverride(ctx context.Context, tournamentID, scope string, teamIDs []string) (*SyncResult, error) {
	return s.mutate(ctx, tournamentID, "set_override", true, func(ctx context.Context, tx repositories.Store) error {
		snap, err := s.loadSnapshot(ctx, tx, tournamentID, false)
		if err != nil {
			return err
		}
		roster, err := scopeRoster(snap.Tournament.Format, snap, scope)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(teamIDs))
		for _, id := range teamIDs {
			if seen[id] {
				return fmt.Errorf("%w: %s", ErrDuplicateTeam, id)
			}
			seen[id] = true
			if !roster[id] {
				return fmt.Errorf("%w: %s is not ranked in %s", ErrForeignTeam, id, scope)
			}
		}
		if len(teamIDs) < 2 {
			return fmt.Errorf("%w: an override orders at least two teams", ErrValidationFailed)
		}
		o := &models.Override{TournamentID: tournamentID, ScopeKey: scope, TeamIDs: teamIDs}
		if err := tx.Overrides().Upsert(ctx, o); err != nil {
			return fmt.Errorf("failed to save override of %s: %w", scope, err)
		}
		return nil
	})
}

func (s *standingsService) ClearOverride(ctx context.Context, tournamentID, scope string) (*SyncResult, error) {
	return s.mutate(ctx, tournamentID, "clear_override", true, func(ctx context.Context, tx repositories.Store) error {
		return storeError(tx.Overrides().Delete(ctx, tournamentID, scope))
	})
}

// scopeRoster returns the teams ranked by a scope: the roster of a pool, or
// every pool play team for a stage ranking.
func scopeRoster(f *models.Format, snap *schedule.Snapshot, scope string) (map[string]bool, error) {
	roster := make(map[string]bool)
	if stageKey, pool, ok := strings.Cut(scope, "/"); ok {
		stage, found := f.Stage(stageKey)
		if !found || stage.Type != models.StagePoolPlay {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
		}
		for _, p := range snap.Pools {
			if p.StageKey == stageKey && p.Name == pool {
				for _, id := range p.TeamIDs {
					roster[id] = true
				}
				return roster, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}

	if _, found := f.Stage(scope); !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	for _, p := range snap.Pools {
		if stage, ok := f.Stage(p.StageKey); ok && stage.Type == models.StagePoolPlay {
			for _, id := range p.TeamIDs {
				roster[id] = true
			}
		}
	}
	return roster, nil
}
