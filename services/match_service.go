package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Dosada05/volley-tournament/brackets"
	"github.com/Dosada05/volley-tournament/broadcast"
	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
)

type FinalizeOptions struct {
	// Override allows finalizing a match that has not ended.
	Override bool
}

// MatchChange is a match after a lifecycle operation together with the
// schedule sync that followed it.
type MatchChange struct {
	Match *models.Match `json:"match"`
	// Affected lists the other matches the operation wrote, in write order.
	Affected []string    `json:"affected,omitempty"`
	Sync     *SyncResult `json:"sync,omitempty"`
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	GetScoreboard(ctx context.Context, matchID string) (*models.Scoreboard, error)
	RecordSets(ctx context.Context, matchID string, sets []models.SetScore) (*models.Scoreboard, error)
	StartMatch(ctx context.Context, matchID string) (*MatchChange, error)
	EndMatch(ctx context.Context, matchID string) (*MatchChange, error)
	FinalizeMatch(ctx context.Context, matchID string, opts FinalizeOptions) (*MatchChange, error)
	UnfinalizeMatch(ctx context.Context, matchID string) (*MatchChange, error)
}

type matchService struct {
	*Engine
}

func NewMatchService(e *Engine) MatchService {
	return &matchService{Engine: e}
}

func (s *matchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, storeError(err)
	}
	return m, nil
}

func (s *matchService) GetScoreboard(ctx context.Context, matchID string) (*models.Scoreboard, error) {
	if _, err := s.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	sb, err := s.store.Scoreboards().GetByMatch(ctx, matchID)
	if errors.Is(err, repositories.ErrScoreboardNotFound) {
		return &models.Scoreboard{MatchID: matchID, Sets: []models.SetScore{}}, nil
	}
	return sb, err
}

// RecordSets replaces the set history of a match that is not final.
func (s *matchService) RecordSets(ctx context.Context, matchID string, sets []models.SetScore) (*models.Scoreboard, error) {
	for _, set := range sets {
		if set.A < 0 || set.B < 0 {
			return nil, ErrInvalidSetScore
		}
	}
	tournamentID, err := s.tournamentOf(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var out *models.Scoreboard
	_, err = s.mutate(ctx, tournamentID, "record_sets", false, func(ctx context.Context, tx repositories.Store) error {
		m, err := tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return storeError(err)
		}
		if m.Status == models.MatchFinal {
			return ErrMatchAlreadyFinal
		}
		sb, err := tx.Scoreboards().GetByMatch(ctx, matchID)
		switch {
		case errors.Is(err, repositories.ErrScoreboardNotFound):
			sb = &models.Scoreboard{ID: s.newID(), MatchID: m.ID, TournamentID: m.TournamentID, Sets: sets}
			if err := tx.Scoreboards().Create(ctx, sb); err != nil {
				return fmt.Errorf("failed to create scoreboard of match %s: %w", matchID, err)
			}
		case err != nil:
			return fmt.Errorf("failed to load scoreboard of match %s: %w", matchID, err)
		default:
			if err := tx.Scoreboards().SaveSets(ctx, matchID, sets); err != nil {
				return fmt.Errorf("failed to save scoreboard of match %s: %w", matchID, err)
			}
		}
		out, err = tx.Scoreboards().GetByMatch(ctx, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transition runs fn on the stored match inside a tournament mutation and
// returns the match as stored once the following sync committed.
func (s *matchService) transition(ctx context.Context, matchID, operation string, fn func(ctx context.Context, tx repositories.Store, m *models.Match) ([]string, error)) (*MatchChange, error) {
	tournamentID, err := s.tournamentOf(ctx, matchID)
	if err != nil {
		return nil, err
	}
	ctx = log.Ctx(ctx).With().Str("match_id", matchID).Logger().WithContext(ctx)

	var affected []string
	result, err := s.mutate(ctx, tournamentID, operation, true, func(ctx context.Context, tx repositories.Store) error {
		m, err := tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return storeError(err)
		}
		affected, err = fn(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, storeError(err)
	}
	return &MatchChange{Match: m, Affected: affected, Sync: result}, nil
}

func (s *matchService) statusChanged(ctx context.Context, m *models.Match, from models.MatchStatus) {
	s.metrics.AddMatchTransition(string(m.Status))
	broadcast.Emit(ctx, s.notifier, broadcast.Event{
		Signal:       broadcast.SignalMatchStatusChanged,
		TournamentID: m.TournamentID,
		MatchID:      m.ID,
		Payload:      map[string]models.MatchStatus{"from": from, "to": m.Status},
		At:           s.now(),
	})
}

func (s *matchService) StartMatch(ctx context.Context, matchID string) (*MatchChange, error) {
	return s.transition(ctx, matchID, "start", func(ctx context.Context, tx repositories.Store, m *models.Match) ([]string, error) {
		if m.Status != models.MatchScheduled {
			return nil, fmt.Errorf("%w: cannot start a %s match", ErrInvalidTransition, m.Status)
		}
		if !m.HasBothTeams() {
			return nil, ErrMissingTeams
		}
		now := s.now()
		m.Status = models.MatchLive
		m.StartedAt = &now
		m.UpdatedAt = now
		if err := tx.Matches().Update(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to start match %s: %w", m.ID, err)
		}
		s.statusChanged(ctx, m, models.MatchScheduled)
		return nil, nil
	})
}

func (s *matchService) EndMatch(ctx context.Context, matchID string) (*MatchChange, error) {
	return s.transition(ctx, matchID, "end", func(ctx context.Context, tx repositories.Store, m *models.Match) ([]string, error) {
		if m.Status != models.MatchLive {
			return nil, fmt.Errorf("%w: cannot end a %s match", ErrInvalidTransition, m.Status)
		}
		now := s.now()
		m.Status = models.MatchEnded
		m.EndedAt = &now
		m.UpdatedAt = now
		if err := tx.Matches().Update(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to end match %s: %w", m.ID, err)
		}
		s.statusChanged(ctx, m, models.MatchLive)
		return nil, nil
	})
}

// FinalizeMatch computes the result from the scoreboard, marks the match final
// and fills every match fed by its winner or loser.
func (s *matchService) FinalizeMatch(ctx context.Context, matchID string, opts FinalizeOptions) (*MatchChange, error) {
	return s.transition(ctx, matchID, "finalize", func(ctx context.Context, tx repositories.Store, m *models.Match) ([]string, error) {
		if m.Status == models.MatchFinal {
			return nil, ErrMatchAlreadyFinal
		}
		if !m.HasBothTeams() {
			return nil, ErrMissingTeams
		}
		if m.Status != models.MatchEnded && !opts.Override {
			return nil, ErrMatchNotEnded
		}

		var sets []models.SetScore
		sb, err := tx.Scoreboards().GetByMatch(ctx, m.ID)
		switch {
		case err == nil:
			sets = sb.Sets
		case !errors.Is(err, repositories.ErrScoreboardNotFound):
			return nil, fmt.Errorf("failed to load scoreboard of match %s: %w", m.ID, err)
		}
		result, err := ComputeResult(*m.TeamAID, *m.TeamBID, sets)
		if err != nil {
			return nil, err
		}

		from := m.Status
		now := s.now()
		m.Result = result
		m.Status = models.MatchFinal
		m.FinalizedAt = &now
		if m.EndedAt == nil {
			m.EndedAt = &now
		}
		m.UpdatedAt = now
		if err := tx.Matches().Update(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to finalize match %s: %w", m.ID, err)
		}

		propagated, err := s.propagate(ctx, tx, m)
		if err != nil {
			return nil, err
		}
		s.metrics.AddMatchTransition(string(models.MatchFinal))
		broadcast.Emit(ctx, s.notifier, broadcast.Event{
			Signal:       broadcast.SignalMatchFinalized,
			TournamentID: m.TournamentID,
			MatchID:      m.ID,
			Payload: map[string]any{
				"from":       from,
				"winner_id":  result.WinnerID,
				"loser_id":   result.LoserID,
				"propagated": propagated,
			},
			At: now,
		})
		log.Ctx(ctx).Info().Str("winner_id", result.WinnerID).Strs("propagated", propagated).Msg("match finalized")
		return propagated, nil
	})
}

// propagate writes the outcome teams of a final match into its scheduled dependents.
func (s *matchService) propagate(ctx context.Context, tx repositories.Store, m *models.Match) ([]string, error) {
	graph, byID, err := s.matchGraph(ctx, tx, m.TournamentID)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, edge := range graph.Dependents(m.ID) {
		dep := byID[edge.To]
		if dep == nil {
			continue
		}
		team := m.OutcomeTeam(edge.Outcome)
		if models.Deref(dep.Team(edge.Side)) == team {
			continue
		}
		if dep.Status != models.MatchScheduled {
			log.Ctx(ctx).Warn().Str("dependent_id", dep.ID).Str("status", string(dep.Status)).
				Msg("dependent match already started, outcome not propagated")
			continue
		}
		dep.SetTeam(edge.Side, models.StringPtr(team))
		dep.UpdatedAt = s.now()
		if err := tx.Matches().Update(ctx, dep); err != nil {
			return nil, fmt.Errorf("failed to propagate into match %s: %w", dep.ID, err)
		}
		written = append(written, dep.ID)
	}
	return written, nil
}

// UnfinalizeMatch reverts a final match to scheduled and clears, recursively,
// every match that received a team from its result.
func (s *matchService) UnfinalizeMatch(ctx context.Context, matchID string) (*MatchChange, error) {
	return s.transition(ctx, matchID, "unfinalize", func(ctx context.Context, tx repositories.Store, m *models.Match) ([]string, error) {
		if m.Status != models.MatchFinal {
			return nil, ErrMatchNotFinal
		}
		graph, byID, err := s.matchGraph(ctx, tx, m.TournamentID)
		if err != nil {
			return nil, err
		}
		if stored := byID[m.ID]; stored != nil {
			m = stored
		}

		var cleared []string
		if err := s.revert(ctx, tx, m, graph, byID, &cleared); err != nil {
			return nil, err
		}
		s.metrics.AddMatchTransition(string(models.MatchScheduled))
		s.metrics.ObserveCascade(len(cleared))
		broadcast.Emit(ctx, s.notifier, broadcast.Event{
			Signal:       broadcast.SignalMatchUnfinalized,
			TournamentID: m.TournamentID,
			MatchID:      m.ID,
			Payload:      map[string][]string{"cleared": cleared},
			At:           s.now(),
		})
		log.Ctx(ctx).Info().Int("cascade", len(cleared)).Msg("match unfinalized")
		return cleared, nil
	})
}

// revert returns m to scheduled with an empty scoreboard. When m was final,
// dependents holding one of its outcome teams lose that team and are reverted in turn.
func (s *matchService) revert(ctx context.Context, tx repositories.Store, m *models.Match, graph *brackets.Graph, byID map[string]*models.Match, cleared *[]string) error {
	outcomes := map[models.Outcome]string{}
	wasFinal := m.IsFinal()
	if wasFinal {
		outcomes[models.OutcomeWinner] = m.Result.WinnerID
		outcomes[models.OutcomeLoser] = m.Result.LoserID
	}

	m.Result = nil
	m.Status = models.MatchScheduled
	m.StartedAt, m.EndedAt, m.FinalizedAt = nil, nil, nil
	m.UpdatedAt = s.now()
	if err := tx.Matches().Update(ctx, m); err != nil {
		return fmt.Errorf("failed to revert match %s: %w", m.ID, err)
	}
	if err := s.resetScoreboard(ctx, tx, m); err != nil {
		return err
	}

	if !wasFinal {
		return nil
	}
	for _, edge := range graph.Dependents(m.ID) {
		dep := byID[edge.To]
		team := outcomes[edge.Outcome]
		if dep == nil || team == "" || models.Deref(dep.Team(edge.Side)) != team {
			continue
		}
		dep.SetTeam(edge.Side, nil)
		*cleared = append(*cleared, dep.ID)
		if err := s.revert(ctx, tx, dep, graph, byID, cleared); err != nil {
			return err
		}
	}
	return nil
}

func (s *matchService) resetScoreboard(ctx context.Context, tx repositories.Store, m *models.Match) error {
	sb, err := tx.Scoreboards().GetByMatch(ctx, m.ID)
	if errors.Is(err, repositories.ErrScoreboardNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load scoreboard of match %s: %w", m.ID, err)
	}
	if err := tx.Scoreboards().SaveSets(ctx, m.ID, []models.SetScore{}); err != nil {
		return fmt.Errorf("failed to reset scoreboard of match %s: %w", m.ID, err)
	}
	scope := broadcast.ScopeFrom(ctx)
	scope.Remember(sb.ID, m.ID)
	broadcast.Emit(ctx, s.notifier, broadcast.Event{
		Signal:       broadcast.SignalScoreboardReset,
		TournamentID: m.TournamentID,
		ScoreboardID: sb.ID,
		At:           s.now(),
	})
	return nil
}

func (s *matchService) matchGraph(ctx context.Context, tx repositories.Store, tournamentID string) (*brackets.Graph, map[string]*models.Match, error) {
	matches, err := tx.Matches().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load matches: %w", err)
	}
	byID := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	return brackets.MatchGraph(matches), byID, nil
}
