// Package testutil builds tournaments for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Dosada05/volley-tournament/formats"
	"github.com/Dosada05/volley-tournament/models"
)

var Epoch = time.Date(2026, 6, 6, 9, 0, 0, 0, time.UTC)

// Format loads a format of the built-in catalog.
func Format(t *testing.T, id string) *models.Format {
	t.Helper()
	c, err := formats.LoadEmbedded()
	if err != nil {
		t.Fatalf("load formats: %v", err)
	}
	f, err := c.Get(id)
	if err != nil {
		t.Fatalf("get format: %v", err)
	}
	return f
}

// Teams returns n teams with ids t01.. and names "Team 01"...
func Teams(tournamentID string, n int) []*models.Team {
	out := make([]*models.Team, n)
	for i := range out {
		out[i] = &models.Team{
			ID:           fmt.Sprintf("t%02d", i+1),
			TournamentID: tournamentID,
			Name:         fmt.Sprintf("Team %02d", i+1),
			Seed:         i + 1,
			CreatedAt:    Epoch,
		}
	}
	return out
}

// Pools fills the pools of the format's first pool play stage in order with the given teams.
func Pools(tournamentID string, f *models.Format, teams []*models.Team) []*models.Pool {
	var out []*models.Pool
	next := 0
	for _, stage := range f.Stages {
		if stage.Type != models.StagePoolPlay {
			continue
		}
		for i, spec := range stage.Pools {
			p := &models.Pool{
				ID:           fmt.Sprintf("pool-%s-%s", stage.Key, spec.Name),
				TournamentID: tournamentID,
				StageKey:     stage.Key,
				Name:         spec.Name,
				Size:         spec.Size,
				Court:        fmt.Sprintf("%d", i+1),
			}
			for j := 0; j < spec.Size && next < len(teams); j++ {
				p.TeamIDs = append(p.TeamIDs, teams[next].ID)
				next++
			}
			out = append(out, p)
		}
		break
	}
	return out
}

// Courts returns court names "1".."n".
func Courts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d", i+1)
	}
	return out
}

// Sweep returns a 2-0 score where the losing side scores loser points in each set.
func Sweep(loser int) []models.SetScore {
	return []models.SetScore{{A: 25, B: loser}, {A: 25, B: loser}}
}

// Finish marks m final with the given sets, side A first.
func Finish(m *models.Match, sets []models.SetScore) {
	r := &models.Result{Sets: append([]models.SetScore(nil), sets...)}
	for _, s := range sets {
		if s.A > s.B {
			r.SetsA++
		} else {
			r.SetsB++
		}
		r.PointsA += s.A
		r.PointsB += s.B
	}
	a, b := models.Deref(m.TeamAID), models.Deref(m.TeamBID)
	r.WinnerID, r.LoserID = a, b
	if r.SetsB > r.SetsA {
		r.WinnerID, r.LoserID = b, a
	}
	m.Result = r
	m.Status = models.MatchFinal
	ended := Epoch
	m.EndedAt = &ended
	m.FinalizedAt = &ended
}

// FifteenTeamSets scores the pool matches of the 15-team format so that the
// cumulative ranking has no ties: pool winners rank 1-5 in pool order, second
// places 6-10 in reverse pool order, and last places 11-15 in reverse pool order.
// index is the pool's position (0 for A) and matchIndex the 1-based template index.
func FifteenTeamSets(index, matchIndex int) []models.SetScore {
	switch matchIndex {
	case 1: // first v third
		return Sweep(10 + 2*index)
	case 2: // second v third
		return Sweep(20 - index)
	default: // first v second
		return Sweep(10 + index)
	}
}
