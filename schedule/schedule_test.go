package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/testutil"
)

const tournamentID = "tour-1"

type fixture struct {
	format *models.Format
	st     *Structure
	snap   *Snapshot
	seq    int
}

func newFixture(t *testing.T, formatID string, courts int) *fixture {
	t.Helper()
	f := testutil.Format(t, formatID)
	st, err := BuildStructure(f, testutil.Courts(courts), 0)
	require.NoError(t, err)

	teams := testutil.Teams(tournamentID, f.Teams)
	return &fixture{
		format: f,
		st:     st,
		snap: &Snapshot{
			Tournament: &models.Tournament{ID: tournamentID, FormatID: f.ID, Courts: testutil.Courts(courts)},
			Teams:      teams,
			Pools:      testutil.Pools(tournamentID, f, teams),
		},
	}
}

func (fx *fixture) options() Options {
	return Options{
		NewID: func() string {
			fx.seq++
			return fmt.Sprintf("m%03d", fx.seq)
		},
		Now: func() time.Time { return testutil.Epoch },
	}
}

// sync reconciles and applies the writes to the snapshot like a store would.
func (fx *fixture) sync(t *testing.T) *Changes {
	t.Helper()
	changes := Reconcile(fx.st, fx.snap, fx.options())
	deleted := map[string]bool{}
	for _, m := range changes.Delete {
		deleted[m.ID] = true
	}
	var kept []*models.Match
	for _, m := range fx.snap.Matches {
		if !deleted[m.ID] {
			kept = append(kept, m)
		}
	}
	for _, m := range changes.Update {
		for i, k := range kept {
			if k.ID == m.ID {
				kept[i] = m
			}
		}
	}
	fx.snap.Matches = append(kept, changes.Create...)
	assertInvariant(t, changes.Slots, fx.snap.Matches)
	return changes
}

func (fx *fixture) match(slotID string) *models.Match {
	for _, m := range fx.snap.Matches {
		if m.SlotID == slotID {
			return m
		}
	}
	return nil
}

func assertInvariant(t *testing.T, slots []models.Slot, matches []*models.Match) {
	t.Helper()
	ids := map[string]bool{}
	for _, m := range matches {
		ids[m.ID] = true
	}
	for _, s := range slots {
		if s.MatchID != "" {
			assert.True(t, s.Resolved(), "slot %s linked without both teams", s.ID)
			assert.True(t, ids[s.MatchID], "slot %s linked to missing match", s.ID)
		}
	}
}

func countSlots(slots []models.Slot, kind models.SlotKind, stage string) int {
	n := 0
	for _, s := range slots {
		if s.Kind == kind && (stage == "" || s.StageKey == stage) {
			n++
		}
	}
	return n
}

func find(t *testing.T, slots []models.Slot, id string) models.Slot {
	t.Helper()
	for _, s := range slots {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("slot %s not found", id)
	return models.Slot{}
}

func TestBuildStructureFifteenTeams(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	slots := fx.st.Slots

	assert.Equal(t, 15, countSlots(slots, models.SlotMatch, "pool"))
	assert.Equal(t, 12, countSlots(slots, models.SlotMatch, "playoffs"))
	assert.Equal(t, 1, countSlots(slots, models.SlotLunch, ""))

	first := find(t, slots, "pool:A:M1")
	assert.Equal(t, 1, first.RoundBlock)
	assert.Equal(t, "1", first.Court)
	assert.Equal(t, "A team 1", first.A.Label())
	assert.Equal(t, "A team 3", first.B.Label())
	assert.Equal(t, "A team 2", first.Referee.Label())
	assert.Equal(t, "5", find(t, slots, "pool:E:M3").Court)
	assert.Equal(t, 3, find(t, slots, "pool:E:M3").RoundBlock)
	assert.Equal(t, 4, find(t, slots, "pool:lunch").RoundBlock)

	// three courts: six first-round matches take two blocks
	assert.Equal(t, 5, find(t, slots, "playoffs:gold:R1M1").RoundBlock)
	assert.Equal(t, 5, find(t, slots, "playoffs:silver:R1M1").RoundBlock)
	assert.Equal(t, 6, find(t, slots, "playoffs:silver:R1M2").RoundBlock)
	assert.Equal(t, 6, find(t, slots, "playoffs:bronze:R1M2").RoundBlock)
	assert.Equal(t, 7, find(t, slots, "playoffs:bronze:R2M1").RoundBlock)
	assert.Equal(t, 8, find(t, slots, "playoffs:gold:R3M1").RoundBlock)

	gold := find(t, slots, "playoffs:gold:R2M1")
	assert.Equal(t, "1vW45", gold.Label)
	assert.Equal(t, "#1 overall", gold.A.Label())
	assert.Equal(t, "W playoffs:gold:R1M1", gold.B.Label())
	bronze := find(t, slots, "playoffs:bronze:R1M1")
	assert.Equal(t, 14, bronze.A.Rank.Rank)
	assert.Equal(t, 15, bronze.B.Rank.Rank)
}

func TestBuildStructureSharedCourtsPlayInWaves(t *testing.T) {
	fx := newFixture(t, "12-teams-4x3-crossover-6bye", 2)
	slots := fx.st.Slots

	assert.Equal(t, 1, find(t, slots, "pool:A:M1").RoundBlock)
	assert.Equal(t, "1", find(t, slots, "pool:C:M1").Court)
	assert.Equal(t, 4, find(t, slots, "pool:C:M1").RoundBlock)
	assert.Equal(t, 6, find(t, slots, "pool:D:M3").RoundBlock)
	assert.Equal(t, 7, find(t, slots, "crossover:AB:X1").RoundBlock)
	assert.Equal(t, 9, find(t, slots, "crossover:CD:X3").RoundBlock)
	assert.Equal(t, 10, find(t, slots, "crossover:lunch").RoundBlock)
}

func TestBuildStructureCrossoverDuties(t *testing.T) {
	fx := newFixture(t, "12-teams-4x3-crossover-6bye", 4)
	labels := func(refs []models.ParticipantRef) []string {
		out := make([]string, len(refs))
		for i, r := range refs {
			out[i] = r.Label()
		}
		return out
	}

	third := find(t, fx.st.Slots, "crossover:AB:X3")
	assert.Equal(t, "A #3", third.A.Label())
	assert.Equal(t, "B #3", third.B.Label())
	assert.Equal(t, "B #2", third.Referee.Label())
	assert.Equal(t, []string{"A #1", "A #2", "B #1"}, labels(third.Byes))

	first := find(t, fx.st.Slots, "crossover:AB:X1")
	assert.Equal(t, "A #2", first.Referee.Label())
	assert.Equal(t, []string{"A #3", "B #2", "B #3"}, labels(first.Byes))
}

func TestBuildStructureEmptyFormat(t *testing.T) {
	st, err := BuildStructure(&models.Format{ID: "empty"}, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, st.Slots)

	changes := Reconcile(st, &Snapshot{Tournament: &models.Tournament{ID: tournamentID}}, Options{})
	assert.Empty(t, changes.Slots)
	assert.True(t, changes.Empty())
}

func TestReconcileMaterializesResolvedPoolSlots(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	fx.snap.Pools[4].TeamIDs = fx.snap.Pools[4].TeamIDs[:2] // pool E incomplete

	changes := fx.sync(t)
	assert.Len(t, changes.Create, 12)
	assert.Empty(t, changes.Delete)

	slot := find(t, changes.Slots, "pool:A:M1")
	require.True(t, slot.Resolved())
	assert.Equal(t, "t01", slot.A.TeamID)
	assert.Equal(t, "t03", slot.B.TeamID)
	assert.Equal(t, "t02", slot.Referee.TeamID)
	require.NotNil(t, slot.A.Rank, "resolved refs keep their placeholder")
	assert.Equal(t, "A team 1", slot.A.Label())

	m := fx.match("pool:A:M1")
	require.NotNil(t, m)
	assert.Equal(t, slot.MatchID, m.ID)
	assert.Equal(t, "pool-pool-A", m.PoolID)
	assert.Equal(t, []string{"t02"}, m.RefereeIDs)
	assert.Equal(t, models.MatchScheduled, m.Status)

	e := find(t, changes.Slots, "pool:E:M1")
	assert.False(t, e.Resolved())
	assert.Empty(t, e.MatchID)

	for _, s := range changes.Slots {
		if s.StageKey == "playoffs" {
			assert.Empty(t, s.MatchID)
			assert.False(t, s.A.IsTeam())
		}
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	first := fx.sync(t)
	require.Len(t, first.Create, 15)
	_, hash1, err := Canonical(first.Slots)
	require.NoError(t, err)

	second := fx.sync(t)
	assert.True(t, second.Empty())
	_, hash2, err := Canonical(second.Slots)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
	assert.Len(t, fx.snap.Matches, 15)
}

func TestReconcileRosterChangeUpdatesAndWithdraws(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	fx.sync(t)
	before := fx.match("pool:A:M1")

	// swap two teams between positions
	fx.snap.Pools[0].TeamIDs = []string{"t03", "t02", "t01"}
	changes := fx.sync(t)
	assert.Len(t, changes.Update, 3)
	after := fx.match("pool:A:M1")
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "t03", models.Deref(after.TeamAID))

	fx.snap.Pools[0].TeamIDs = []string{"t03", "t02"}
	changes = fx.sync(t)
	assert.Len(t, changes.Delete, 3)
	assert.Nil(t, fx.match("pool:A:M1"))
	assert.Empty(t, find(t, changes.Slots, "pool:A:M1").MatchID)
}

func TestReconcileStartedMatchIsPinned(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	fx.sync(t)
	m := fx.match("pool:A:M1")
	m.Status = models.MatchLive

	fx.snap.Pools[0].TeamIDs = []string{"t03", "t02"}
	changes := fx.sync(t)

	assert.NotNil(t, fx.match("pool:A:M1"))
	slot := find(t, changes.Slots, "pool:A:M1")
	assert.Equal(t, "t01", slot.A.TeamID)
	assert.Equal(t, m.ID, slot.MatchID)
	assert.Nil(t, fx.match("pool:A:M2"), "scheduled matches of the pool are withdrawn")
}

func finishPools(t *testing.T, fx *fixture, skip string) {
	t.Helper()
	for i, spec := range fx.format.Stages[0].Pools {
		for n := 1; n <= 3; n++ {
			id := PoolSlotID("pool", spec.Name, n)
			if id == skip {
				continue
			}
			m := fx.match(id)
			require.NotNil(t, m, id)
			testutil.Finish(m, testutil.FifteenTeamSets(i, n))
		}
	}
}

func TestReconcileSeedsPlayoffsOnlyWhenPoolsComplete(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	fx.sync(t)

	finishPools(t, fx, "pool:E:M3")
	changes := fx.sync(t)
	assert.Empty(t, changes.Create, "one open pool match keeps every seed a placeholder")
	assert.False(t, find(t, changes.Slots, "playoffs:gold:R1M1").A.IsTeam())

	testutil.Finish(fx.match("pool:E:M3"), testutil.FifteenTeamSets(4, 3))
	changes = fx.sync(t)
	require.Len(t, changes.Create, 12)

	r := NewResolver(fx.st, fx.snap)
	entries, complete := r.StageStandings("playoffs")
	require.True(t, complete)
	require.Len(t, entries, 15)
	want := []string{"t01", "t04", "t07", "t10", "t13", "t14", "t11", "t08", "t05", "t02", "t15", "t12", "t09", "t06", "t03"}
	for i, e := range entries {
		assert.Equal(t, want[i], e.TeamID, "rank %d", i+1)
		assert.Equal(t, models.TieBreakNone, e.TieBreak)
	}

	gold1 := find(t, changes.Slots, "playoffs:gold:R1M1")
	assert.Equal(t, "t10", gold1.A.TeamID)
	assert.Equal(t, "t13", gold1.B.TeamID)
	assert.NotEmpty(t, gold1.MatchID)

	gold2 := find(t, changes.Slots, "playoffs:gold:R2M1")
	assert.Equal(t, "t01", gold2.A.TeamID)
	assert.False(t, gold2.B.IsTeam())
	assert.Empty(t, gold2.MatchID)

	m := fx.match("playoffs:gold:R2M1")
	require.NotNil(t, m)
	require.NotNil(t, m.SourceB)
	assert.Equal(t, fx.match("playoffs:gold:R1M1").ID, m.SourceB.MatchID)
	assert.Equal(t, models.OutcomeWinner, m.SourceB.Outcome)

	final := fx.match("playoffs:gold:R3M1")
	require.NotNil(t, final)
	assert.Equal(t, fx.match("playoffs:gold:R1M2").ID, final.SourceB.MatchID)

	assert.True(t, fx.sync(t).Empty())
}

func TestReconcileWithdrawsUnstartedBracket(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	fx.sync(t)
	finishPools(t, fx, "")
	fx.sync(t)
	require.NotNil(t, fx.match("playoffs:gold:R1M1"))

	reopened := fx.match("pool:C:M2")
	reopened.Status = models.MatchScheduled
	reopened.Result = nil

	changes := fx.sync(t)
	assert.Len(t, changes.Delete, 12)
	assert.Nil(t, fx.match("playoffs:gold:R1M1"))
}

func TestCanonicalIgnoresOrder(t *testing.T) {
	fx := newFixture(t, "12-teams-4x3-crossover-6bye", 4)
	slots := append([]models.Slot(nil), fx.st.Slots...)
	doc1, hash1, err := Canonical(slots)
	require.NoError(t, err)

	reversed := make([]models.Slot, len(slots))
	for i, s := range slots {
		reversed[len(slots)-1-i] = s
	}
	x := &reversed[0]
	for i := range reversed {
		if len(reversed[i].Byes) > 1 {
			x = &reversed[i]
			break
		}
	}
	byes := append([]models.ParticipantRef(nil), x.Byes...)
	byes[0], byes[len(byes)-1] = byes[len(byes)-1], byes[0]
	x.Byes = byes

	doc2, hash2, err := Canonical(reversed)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
	assert.Equal(t, doc1, doc2)

	decoded, err := DecodePlan(doc1)
	require.NoError(t, err)
	assert.Len(t, decoded, len(slots))
}

func TestChangedSlots(t *testing.T) {
	fx := newFixture(t, "15-teams-5x3-ops", 5)
	before := Reconcile(fx.st, &Snapshot{Tournament: fx.snap.Tournament, Teams: fx.snap.Teams}, fx.options()).Slots
	after := fx.sync(t).Slots

	changed, err := ChangedSlots(before, after)
	require.NoError(t, err)
	assert.Len(t, changed, 15)
	assert.Contains(t, changed, "pool:A:M1")
}
