package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/broadcast"
	"github.com/Dosada05/volley-tournament/formats"
	"github.com/Dosada05/volley-tournament/metrics"
	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
	"github.com/Dosada05/volley-tournament/schedule"
	"github.com/Dosada05/volley-tournament/storage"
	"github.com/Dosada05/volley-tournament/testutil"
)

const tournamentID = "tour-1"

type harness struct {
	store       *repositories.MemoryStore
	recorder    *broadcast.Recorder
	objects     *storage.MemoryObjects
	engine      *Engine
	schedule    ScheduleService
	matches     MatchService
	standings   StandingsService
	pools       PoolService
	tournaments TournamentService
	format      *models.Format
	seq         int
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithStore(t, nil)
}

// newHarnessWithStore builds the services over wrap(memory store) when wrap is set.
func newHarnessWithStore(t *testing.T, wrap func(repositories.Store) repositories.Store) *harness {
	t.Helper()
	catalog, err := formats.LoadEmbedded()
	require.NoError(t, err)

	h := &harness{
		store:    repositories.NewMemoryStore(),
		recorder: broadcast.NewRecorder(),
		objects:  storage.NewMemoryObjects(),
	}
	var store repositories.Store = h.store
	if wrap != nil {
		store = wrap(h.store)
	}
	h.engine = NewEngine(Deps{
		Store:    store,
		Catalog:  catalog,
		Notifier: h.recorder,
		Archive:  storage.NewPlanArchive(h.objects, ""),
		Metrics:  metrics.NewNoop(),
		NewID: func() string {
			h.seq++
			return fmt.Sprintf("id-%04d", h.seq)
		},
		Now: func() time.Time { return testutil.Epoch },
	})
	h.schedule = NewScheduleService(h.engine)
	h.matches = NewMatchService(h.engine)
	h.standings = NewStandingsService(h.engine)
	h.pools = NewPoolService(h.engine)
	h.tournaments = NewTournamentService(h.engine)
	return h
}

// seed stores a tournament of the format with teams t01.. filling its pools in order.
func (h *harness) seed(t *testing.T, formatID string) {
	t.Helper()
	ctx := context.Background()
	h.format = testutil.Format(t, formatID)
	require.NoError(t, h.store.Tournaments().Create(ctx, &models.Tournament{
		ID: tournamentID, Name: "Summer Cup", FormatID: formatID, Courts: testutil.Courts(5), Status: models.StatusSetup,
	}))
	teams := testutil.Teams(tournamentID, h.format.Teams)
	for _, team := range teams {
		require.NoError(t, h.store.Teams().Create(ctx, team))
	}
	for _, p := range testutil.Pools(tournamentID, h.format, teams) {
		require.NoError(t, h.store.Pools().Create(ctx, p))
	}
}

func (h *harness) sync(t *testing.T) *SyncResult {
	t.Helper()
	r, err := h.schedule.SyncSchedulePlan(context.Background(), tournamentID)
	require.NoError(t, err)
	return r
}

func (h *harness) slot(t *testing.T, slotID string) *models.Match {
	t.Helper()
	m, err := h.store.Matches().GetBySlotID(context.Background(), tournamentID, slotID)
	require.NoError(t, err, slotID)
	return m
}

func (h *harness) play(t *testing.T, slotID string, sets []models.SetScore) *MatchChange {
	t.Helper()
	ctx := context.Background()
	m := h.slot(t, slotID)
	_, err := h.matches.StartMatch(ctx, m.ID)
	require.NoError(t, err, slotID)
	_, err = h.matches.RecordSets(ctx, m.ID, sets)
	require.NoError(t, err, slotID)
	_, err = h.matches.EndMatch(ctx, m.ID)
	require.NoError(t, err, slotID)
	change, err := h.matches.FinalizeMatch(ctx, m.ID, FinalizeOptions{})
	require.NoError(t, err, slotID)
	return change
}

// finishPools plays every pool match of the 15 team format to the untied ranking.
func (h *harness) finishPools(t *testing.T) {
	t.Helper()
	for i, spec := range h.format.Stages[0].Pools {
		for n := 1; n <= 3; n++ {
			h.play(t, poolSlot(spec.Name, n), testutil.FifteenTeamSets(i, n))
		}
	}
}

func poolSlot(pool string, n int) string {
	return schedule.PoolSlotID("pool", pool, n)
}

func (h *harness) plan(t *testing.T) *models.SchedulePlan {
	t.Helper()
	plan, err := h.schedule.GetSchedulePlan(context.Background(), tournamentID)
	require.NoError(t, err)
	return plan
}

func (h *harness) assertInvariant(t *testing.T) {
	t.Helper()
	plan := h.plan(t)
	for _, s := range plan.Slots {
		if s.MatchID == "" {
			continue
		}
		require.True(t, s.Resolved(), "slot %s linked without both teams", s.ID)
		m, err := h.store.Matches().GetByID(context.Background(), s.MatchID)
		require.NoError(t, err, "slot %s linked to a missing match", s.ID)
		require.Equal(t, s.ID, m.SlotID)
	}
}
