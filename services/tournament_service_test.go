package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
)

func teamNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Team %02d", i+1)
	}
	return out
}

func TestCreateTournamentAutoAssign(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tour, err := h.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name:       "  Beach Open ",
		FormatID:   fifteen,
		Courts:     []string{"1", "2", "3", "4", "5"},
		Teams:      teamNames(15),
		AutoAssign: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Beach Open", tour.Name)
	assert.Equal(t, models.StatusSetup, tour.Status)
	require.NotNil(t, tour.Format)
	assert.Equal(t, fifteen, tour.Format.ID)

	teams, err := h.tournaments.ListTeams(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, teams, 15)
	assert.Equal(t, 1, teams[0].Seed)

	pools, err := h.pools.ListPools(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, pools, 5)
	for i, p := range pools {
		assert.Len(t, p.TeamIDs, 3, p.Name)
		assert.Equal(t, fmt.Sprintf("%d", i+1), p.Court)
	}

	matches, err := h.schedule.ListMatches(ctx, tour.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 15)

	plan, err := h.schedule.GetSchedulePlan(ctx, tour.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Hash)
}

func TestCreateTournamentWithoutAssignment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tour, err := h.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Empty", FormatID: fifteen})
	require.NoError(t, err)
	assert.Equal(t, []string{}, tour.Courts)

	matches, err := h.schedule.ListMatches(ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)

	team, err := h.tournaments.AddTeam(ctx, tour.ID, "Spikers", "SPK")
	require.NoError(t, err)
	assert.Equal(t, 1, team.Seed)
}

func TestCreateTournamentValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: " ", FormatID: fifteen})
	assert.ErrorIs(t, err, ErrTournamentNameEmpty)

	_, err = h.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", FormatID: "nope"})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = h.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", FormatID: fifteen, Teams: teamNames(16)})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = h.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", FormatID: fifteen, Teams: []string{"A", ""}})
	assert.ErrorIs(t, err, ErrTeamNameEmpty)
	assert.Empty(t, h.store.Snapshot().Tournaments, "a rejected creation leaves nothing behind")
}

func TestAddTeamRespectsFormatSize(t *testing.T) {
	h := newHarness(t)
	h.seed(t, fifteen)
	ctx := context.Background()

	_, err := h.tournaments.AddTeam(ctx, tournamentID, "Sixteenth", "")
	assert.ErrorIs(t, err, ErrPrecondition)
	_, err = h.tournaments.AddTeam(ctx, tournamentID, "", "")
	assert.ErrorIs(t, err, ErrTeamNameEmpty)
	_, err = h.tournaments.AddTeam(ctx, "missing", "Team", "")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestListFormats(t *testing.T) {
	h := newHarness(t)
	formats := h.tournaments.ListFormats()
	require.NotEmpty(t, formats)
	ids := make([]string, len(formats))
	for i, f := range formats {
		ids[i] = f.ID
	}
	assert.Contains(t, ids, fifteen)
}
