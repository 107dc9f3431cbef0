package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
)

type CreateTournamentInput struct {
	Name     string   `json:"name"`
	FormatID string   `json:"format_id"`
	Courts   []string `json:"courts"`
	// Teams are team names in registration order.
	Teams []string `json:"teams"`
	// AutoAssign fills the pools in registration order.
	AutoAssign bool `json:"auto_assign"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, in CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error)
	AddTeam(ctx context.Context, tournamentID, name, shortName string) (*models.Team, error)
	ListTeams(ctx context.Context, tournamentID string) ([]*models.Team, error)
	ListFormats() []*models.Format
}

type tournamentService struct {
	*Engine
}

func NewTournamentService(e *Engine) TournamentService {
	return &tournamentService{Engine: e}
}

func (s *tournamentService) ListFormats() []*models.Format {
	return s.catalog.List()
}

// CreateTournament stores a tournament with the pools its format declares and
// syncs its first plan, which holds placeholders only unless AutoAssign is set.
func (s *tournamentService) CreateTournament(ctx context.Context, in CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrTournamentNameEmpty
	}
	f, err := s.catalog.Get(in.FormatID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if len(in.Teams) > f.Teams {
		return nil, fmt.Errorf("%w: format %s takes %d teams, got %d", ErrValidationFailed, f.ID, f.Teams, len(in.Teams))
	}

	courts := in.Courts
	if courts == nil {
		courts = []string{}
	}
	t := &models.Tournament{
		ID:       s.newID(),
		Name:     name,
		FormatID: f.ID,
		Courts:   courts,
		Status:   models.StatusSetup,
	}
	_, err = s.mutate(ctx, t.ID, "create_tournament", true, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Tournaments().Create(ctx, t); err != nil {
			return fmt.Errorf("failed to create tournament: %w", err)
		}

		teams := make([]*models.Team, 0, len(in.Teams))
		for i, teamName := range in.Teams {
			teamName = strings.TrimSpace(teamName)
			if teamName == "" {
				return ErrTeamNameEmpty
			}
			team := &models.Team{ID: s.newID(), TournamentID: t.ID, Name: teamName, Seed: i + 1}
			if err := tx.Teams().Create(ctx, team); err != nil {
				return fmt.Errorf("failed to create team %q: %w", teamName, err)
			}
			teams = append(teams, team)
		}

		next := 0
		for _, stage := range f.Stages {
			if stage.Type != models.StagePoolPlay {
				continue
			}
			for i, spec := range stage.Pools {
				pool := &models.Pool{
					ID:           s.newID(),
					TournamentID: t.ID,
					StageKey:     stage.Key,
					Name:         spec.Name,
					Size:         spec.Size,
					TeamIDs:      []string{},
				}
				if len(in.Courts) > 0 {
					pool.Court = in.Courts[i%len(in.Courts)]
				}
				for in.AutoAssign && len(pool.TeamIDs) < spec.Size && next < len(teams) {
					pool.TeamIDs = append(pool.TeamIDs, teams[next].ID)
					next++
				}
				if err := tx.Pools().Create(ctx, pool); err != nil {
					return storeError(err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTournament(ctx, t.ID)
}

func (s *tournamentService) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, storeError(err)
	}
	if t.Format, err = s.catalog.Get(t.FormatID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return t, nil
}

func (s *tournamentService) AddTeam(ctx context.Context, tournamentID, name, shortName string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameEmpty
	}
	team := &models.Team{ID: s.newID(), TournamentID: tournamentID, Name: name, ShortName: shortName}
	_, err := s.mutate(ctx, tournamentID, "add_team", false, func(ctx context.Context, tx repositories.Store) error {
		t, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return storeError(err)
		}
		f, err := s.catalog.Get(t.FormatID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		teams, err := tx.Teams().ListByTournament(ctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		if len(teams) >= f.Teams {
			return fmt.Errorf("%w: format %s takes %d teams", ErrPrecondition, f.ID, f.Teams)
		}
		team.Seed = len(teams) + 1
		return tx.Teams().Create(ctx, team)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *tournamentService) ListTeams(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, storeError(err)
	}
	return s.store.Teams().ListByTournament(ctx, tournamentID)
}
