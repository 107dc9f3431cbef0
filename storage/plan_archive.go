package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/Dosada05/volley-tournament/models"
)

const planContentType = "application/json"

// PlanArchive keeps every distinct schedule plan document of a tournament,
// addressed by hash, plus a pointer to the latest one.
type PlanArchive struct {
	objects ObjectStore
	prefix  string
}

func NewPlanArchive(objects ObjectStore, prefix string) *PlanArchive {
	if prefix == "" {
		prefix = "schedule-plans"
	}
	return &PlanArchive{objects: objects, prefix: prefix}
}

func (a *PlanArchive) PlanKey(tournamentID, hash string) string {
	return path.Join(a.prefix, tournamentID, hash+".json")
}

func (a *PlanArchive) LatestKey(tournamentID string) string {
	return path.Join(a.prefix, tournamentID, "latest.json")
}

func (a *PlanArchive) Archive(ctx context.Context, plan *models.SchedulePlan) error {
	if plan == nil || plan.TournamentID == "" || plan.Hash == "" {
		return errors.New("plan archive: tournament id and hash are required")
	}
	if _, err := a.objects.Put(ctx, a.PlanKey(plan.TournamentID, plan.Hash), planContentType, bytes.NewReader(plan.Document)); err != nil {
		return fmt.Errorf("failed to archive plan %s: %w", plan.Hash, err)
	}
	if _, err := a.objects.Put(ctx, a.LatestKey(plan.TournamentID), planContentType, bytes.NewReader(plan.Document)); err != nil {
		return fmt.Errorf("failed to update latest plan of tournament %s: %w", plan.TournamentID, err)
	}
	return nil
}

// Latest returns the most recently archived document of the tournament.
func (a *PlanArchive) Latest(ctx context.Context, tournamentID string) ([]byte, error) {
	return a.objects.Get(ctx, a.LatestKey(tournamentID))
}
