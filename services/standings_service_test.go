package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
)

// playCycle makes every team of pool A win once with identical set and point totals.
func playCycle(t *testing.T, h *harness) {
	t.Helper()
	aWins := []models.SetScore{{A: 25, B: 20}, {A: 20, B: 25}, {A: 15, B: 10}}
	bWins := []models.SetScore{{A: 20, B: 25}, {A: 25, B: 20}, {A: 10, B: 15}}
	h.play(t, poolSlot("A", 1), aWins) // t01 beats t03
	h.play(t, poolSlot("A", 2), bWins) // t03 beats t02
	h.play(t, poolSlot("A", 3), bWins) // t02 beats t01
}

func ranking(entries []models.StandingsEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.TeamID
	}
	return out
}

func TestStandingsOverrideBreaksThreeWayTie(t *testing.T) {
	h := newHarness(t)
	h.seed(t, fifteen)
	h.sync(t)
	playCycle(t, h)
	ctx := context.Background()

	st, err := h.standings.GetStandings(ctx, tournamentID, "pool/A")
	require.NoError(t, err)
	assert.True(t, st.Complete)
	assert.Equal(t, []string{"t01", "t02", "t03"}, ranking(st.Entries))
	assert.Equal(t, models.TieBreakIdentity, st.Entries[0].TieBreak)

	_, err = h.standings.SetOverride(ctx, tournamentID, "pool/A", []string{"t03", "t01", "t02"})
	require.NoError(t, err)

	st, err = h.standings.GetStandings(ctx, tournamentID, "pool/A")
	require.NoError(t, err)
	assert.Equal(t, []string{"t03", "t01", "t02"}, ranking(st.Entries))
	assert.Equal(t, models.TieBreakOverride, st.Entries[0].TieBreak)
	assert.Equal(t, []string{"t03", "t01", "t02"}, st.Override)

	_, err = h.standings.ClearOverride(ctx, tournamentID, "pool/A")
	require.NoError(t, err)
	st, err = h.standings.GetStandings(ctx, tournamentID, "pool/A")
	require.NoError(t, err)
	assert.Equal(t, []string{"t01", "t02", "t03"}, ranking(st.Entries))
	assert.Nil(t, st.Override)

	_, err = h.standings.ClearOverride(ctx, tournamentID, "pool/A")
	assert.ErrorIs(t, err, ErrOverrideNotFound)
}

func TestOverrideDoesNotBeatResults(t *testing.T) {
	h := newHarness(t)
	h.seed(t, fifteen)
	h.sync(t)
	h.finishPools(t)
	ctx := context.Background()

	_, err := h.standings.SetOverride(ctx, tournamentID, "pool/A", []string{"t03", "t02", "t01"})
	require.NoError(t, err)
	st, err := h.standings.GetStandings(ctx, tournamentID, "pool/A")
	require.NoError(t, err)
	assert.Equal(t, []string{"t01", "t02", "t03"}, ranking(st.Entries))
	for _, e := range st.Entries {
		assert.Equal(t, models.TieBreakNone, e.TieBreak)
	}
}

func TestSetOverrideValidation(t *testing.T) {
	h := newHarness(t)
	h.seed(t, fifteen)
	h.sync(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		scope string
		teams []string
		want  error
	}{
		{name: "unknown pool", scope: "pool/Z", teams: []string{"t01", "t02"}, want: ErrUnknownScope},
		{name: "unknown stage", scope: "finals", teams: []string{"t01", "t02"}, want: ErrUnknownScope},
		{name: "bracket stage pool", scope: "playoffs/gold", teams: []string{"t01", "t02"}, want: ErrUnknownScope},
		{name: "foreign team", scope: "pool/A", teams: []string{"t01", "t04"}, want: ErrForeignTeam},
		{name: "duplicate", scope: "pool/A", teams: []string{"t01", "t01"}, want: ErrDuplicateTeam},
		{name: "single team", scope: "pool/A", teams: []string{"t01"}, want: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.standings.SetOverride(ctx, tournamentID, tt.scope, tt.teams)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}

	_, err := h.standings.SetOverride(ctx, tournamentID, "pool", []string{"t15", "t01"})
	assert.NoError(t, err, "stage ranking accepts any pool play team")
}

func TestGetStandingsScopes(t *testing.T) {
	h := newHarness(t)
	h.seed(t, fifteen)
	h.sync(t)
	ctx := context.Background()

	st, err := h.standings.GetStandings(ctx, tournamentID, "pool/B")
	require.NoError(t, err)
	assert.False(t, st.Complete)
	assert.Len(t, st.Entries, 3)

	_, err = h.standings.GetStandings(ctx, tournamentID, "pool/Q")
	assert.ErrorIs(t, err, ErrUnknownScope)
	_, err = h.standings.GetStandings(ctx, "missing", "pool")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
