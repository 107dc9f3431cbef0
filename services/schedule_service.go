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
	"github.com/Dosada05/volley-tournament/schedule"
)

// SyncResult reports what one schedule sync changed.
type SyncResult struct {
	Changed      bool                 `json:"changed"`
	Created      int                  `json:"created"`
	Updated      int                  `json:"updated"`
	Removed      int                  `json:"removed"`
	ChangedSlots []string             `json:"changed_slots,omitempty"`
	Orphans      []string             `json:"orphans,omitempty"`
	Plan         *models.SchedulePlan `json:"plan"`
}

type ScheduleService interface {
	SyncSchedulePlan(ctx context.Context, tournamentID string) (*SyncResult, error)
	GetSchedulePlan(ctx context.Context, tournamentID string) (*models.SchedulePlan, error)
	ListMatches(ctx context.Context, tournamentID string) ([]*models.Match, error)
	PreviewBracket(label, shape string, size int) ([]brackets.Node, error)
	PreviewRoundRobin(poolSize int, teamOrder []string) ([]brackets.RoundRobinMatch, error)
}

type scheduleService struct {
	*Engine
}

func NewScheduleService(e *Engine) ScheduleService {
	return &scheduleService{Engine: e}
}

func (s *scheduleService) SyncSchedulePlan(ctx context.Context, tournamentID string) (*SyncResult, error) {
	return s.mutate(ctx, tournamentID, "sync", true, nil)
}

func (s *scheduleService) GetSchedulePlan(ctx context.Context, tournamentID string) (*models.SchedulePlan, error) {
	plan, err := s.store.Plans().Get(ctx, tournamentID)
	if err != nil {
		return nil, storeError(err)
	}
	if plan.Slots, err = schedule.DecodePlan(plan.Document); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *scheduleService) ListMatches(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, storeError(err)
	}
	matches, err := s.store.Matches().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %s: %w", tournamentID, err)
	}
	return matches, nil
}

// PreviewBracket builds a bracket plan without touching any tournament.
func (s *scheduleService) PreviewBracket(label, shape string, size int) ([]brackets.Node, error) {
	sh, err := brackets.ParseShape(shape, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	nodes, err := brackets.BuildBracketPlan(brackets.Definition{Label: label, Shape: sh})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nodes, nil
}

func (s *scheduleService) PreviewRoundRobin(poolSize int, teamOrder []string) ([]brackets.RoundRobinMatch, error) {
	matches, err := brackets.GenerateRoundRobin(poolSize, teamOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return matches, nil
}

// syncTx reconciles the stored matches of a tournament with its format and
// stores the plan when its canonical form changed. It must run inside tx.
func (e *Engine) syncTx(ctx context.Context, tx repositories.Store, tournamentID string) (*SyncResult, error) {
	snap, err := e.loadSnapshot(ctx, tx, tournamentID, false)
	if err != nil {
		return nil, err
	}
	st, err := e.structure(snap.Tournament)
	if err != nil {
		return nil, err
	}

	changes := schedule.Reconcile(st, snap, schedule.Options{NewID: e.newID, Now: e.now})
	if err := e.apply(ctx, tx, tournamentID, changes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMaterialization, err)
	}

	result := &SyncResult{
		Created: len(changes.Create),
		Updated: len(changes.Update),
		Removed: len(changes.Delete),
	}
	for _, m := range changes.Orphans {
		result.Orphans = append(result.Orphans, m.ID)
		log.Ctx(ctx).Warn().Str("match_id", m.ID).Str("slot_id", m.SlotID).
			Str("status", string(m.Status)).Msg("started match has no slot in the format")
	}

	plan, err := schedule.NewPlan(tournamentID, changes.Slots, e.now())
	if err != nil {
		return nil, err
	}
	prev, err := tx.Plans().Get(ctx, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrPlanNotFound) {
		return nil, fmt.Errorf("failed to load schedule plan: %w", err)
	}

	if prev != nil && prev.Hash == plan.Hash {
		prev.Slots = changes.Slots
		result.Plan = prev
	} else {
		if err := tx.Plans().Save(ctx, plan); err != nil {
			return nil, fmt.Errorf("failed to save schedule plan: %w", err)
		}
		var prevSlots []models.Slot
		if prev != nil {
			if prevSlots, err = schedule.DecodePlan(prev.Document); err != nil {
				return nil, err
			}
		}
		if result.ChangedSlots, err = schedule.ChangedSlots(prevSlots, plan.Slots); err != nil {
			return nil, err
		}
		result.Changed = true
		result.Plan = plan
		broadcast.Emit(ctx, e.notifier, broadcast.Event{
			Signal:       broadcast.SignalPlanChanged,
			TournamentID: tournamentID,
			SlotIDs:      result.ChangedSlots,
			Payload:      map[string]string{"hash": plan.Hash},
			At:           e.now(),
		})
	}

	if len(changes.Create) > 0 {
		ids := make([]string, len(changes.Create))
		for i, m := range changes.Create {
			ids[i] = m.ID
		}
		broadcast.Emit(ctx, e.notifier, broadcast.Event{
			Signal:       broadcast.SignalMatchesGenerated,
			TournamentID: tournamentID,
			Payload:      map[string][]string{"match_ids": ids},
			At:           e.now(),
		})
	}

	if err := e.updateStatus(ctx, tx, snap, changes); err != nil {
		return nil, err
	}
	return result, nil
}

// apply writes the reconciled matches. Deleted matches lose their scoreboard;
// created ones get an empty one.
func (e *Engine) apply(ctx context.Context, tx repositories.Store, tournamentID string, changes *schedule.Changes) error {
	scope := broadcast.ScopeFrom(ctx)

	for _, m := range changes.Delete {
		if err := tx.Scoreboards().DeleteByMatch(ctx, m.ID); err != nil && !errors.Is(err, repositories.ErrScoreboardNotFound) {
			return fmt.Errorf("failed to delete scoreboard of match %s: %w", m.ID, err)
		}
		if err := tx.Matches().Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("failed to delete match %s of slot %s: %w", m.ID, m.SlotID, err)
		}
	}

	for _, m := range changes.Create {
		if err := tx.Matches().Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create match for slot %s: %w", m.SlotID, err)
		}
		sb := &models.Scoreboard{ID: e.newID(), MatchID: m.ID, TournamentID: tournamentID, Sets: []models.SetScore{}}
		if err := tx.Scoreboards().Create(ctx, sb); err != nil {
			return fmt.Errorf("failed to create scoreboard for slot %s: %w", m.SlotID, err)
		}
		scope.Remember(sb.ID, m.ID)
	}

	for _, m := range changes.Update {
		if err := tx.Matches().Update(ctx, m); err != nil {
			return fmt.Errorf("failed to update match %s of slot %s: %w", m.ID, m.SlotID, err)
		}
	}
	return nil
}

// updateStatus moves the tournament to active once a match has started and to
// completed once every match slot has a final match.
func (e *Engine) updateStatus(ctx context.Context, tx repositories.Store, snap *schedule.Snapshot, changes *schedule.Changes) error {
	byID := make(map[string]*models.Match, len(snap.Matches))
	started := false
	for _, m := range snap.Matches {
		byID[m.ID] = m
		if m.Status != models.MatchScheduled {
			started = true
		}
	}

	slots, final := 0, 0
	for _, slot := range changes.Slots {
		if slot.Kind != models.SlotMatch {
			continue
		}
		slots++
		if m := byID[slot.MatchID]; m != nil && m.IsFinal() {
			final++
		}
	}

	status := models.StatusSetup
	switch {
	case slots > 0 && final == slots:
		status = models.StatusCompleted
	case started:
		status = models.StatusActive
	}
	if status == snap.Tournament.Status {
		return nil
	}
	if err := tx.Tournaments().UpdateStatus(ctx, snap.Tournament.ID, status); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	log.Ctx(ctx).Info().Str("status", string(status)).Msg("tournament status changed")
	return nil
}
