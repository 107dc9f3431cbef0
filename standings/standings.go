// Package standings ranks teams from finalized match results.
package standings

import (
	"sort"

	"github.com/Dosada05/volley-tournament/models"
)

// Scope is the set of teams being ranked: one pool, or every team of a stage ranking.
type Scope struct {
	Key   string
	Teams []*models.Team
}

type teamStats struct {
	models.StandingsEntry
	team           *models.Team
	headToHeadWins map[string]int
}

// Compute ranks the teams of scope using the final matches among matches.
// Matches that are not final are ignored. override, when it names every team of a
// tied run, orders teams that the head-to-head rule could not separate.
func Compute(scope Scope, matches []*models.Match, override []string) []models.StandingsEntry {
	stats := make(map[string]*teamStats, len(scope.Teams))
	ordered := make([]*teamStats, 0, len(scope.Teams))
	for _, team := range scope.Teams {
		if team == nil {
			continue
		}
		if _, dup := stats[team.ID]; dup {
			continue
		}
		entry := &teamStats{
			StandingsEntry: models.StandingsEntry{TeamID: team.ID, TeamName: team.Name},
			team:           team,
			headToHeadWins: make(map[string]int),
		}
		stats[team.ID] = entry
		ordered = append(ordered, entry)
	}

	for _, m := range matches {
		if m == nil || !m.IsFinal() || !m.HasBothTeams() {
			continue
		}
		a, b := *m.TeamAID, *m.TeamBID
		r := m.Result
		if entry, ok := stats[a]; ok {
			entry.record(r.WinnerID == a, b, r.SetsA, r.SetsB, r.PointsA, r.PointsB)
		}
		if entry, ok := stats[b]; ok {
			entry.record(r.WinnerID == b, a, r.SetsB, r.SetsA, r.PointsB, r.PointsA)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if c := comparePrimary(ordered[i], ordered[j]); c != 0 {
			return c < 0
		}
		return identityLess(ordered[i], ordered[j])
	})

	breakTies(ordered, override)

	out := make([]models.StandingsEntry, len(ordered))
	for i, entry := range ordered {
		entry.Rank = i + 1
		out[i] = entry.StandingsEntry
	}
	return out
}

func (s *teamStats) record(won bool, opponent string, setsFor, setsAgainst, pointsFor, pointsAgainst int) {
	s.MatchesPlayed++
	if won {
		s.MatchesWon++
		s.headToHeadWins[opponent]++
	} else {
		s.MatchesLost++
	}
	s.SetsWon += setsFor
	s.SetsLost += setsAgainst
	s.SetsPlayed += setsFor + setsAgainst
	s.SetPercentage = float64(s.SetsWon) / float64(max(s.SetsPlayed, 1))
	s.PointsFor += pointsFor
	s.PointsAgainst += pointsAgainst
	s.PointDifferential = s.PointsFor - s.PointsAgainst
}

// comparePrimary orders better records first: negative when a ranks above b.
func comparePrimary(a, b *teamStats) int {
	if a.MatchesWon != b.MatchesWon {
		return b.MatchesWon - a.MatchesWon
	}
	if a.MatchesLost != b.MatchesLost {
		return a.MatchesLost - b.MatchesLost
	}
	// set percentage without floats: wonA/playedA vs wonB/playedB
	left := a.SetsWon * max(b.SetsPlayed, 1)
	right := b.SetsWon * max(a.SetsPlayed, 1)
	if left != right {
		return right - left
	}
	return b.PointDifferential - a.PointDifferential
}

func identityLess(a, b *teamStats) bool {
	if a.TeamName != b.TeamName {
		return a.TeamName < b.TeamName
	}
	return a.TeamID < b.TeamID
}

func breakTies(ordered []*teamStats, override []string) {
	position := overridePositions(override)

	start := 0
	for start < len(ordered) {
		end := start + 1
		for end < len(ordered) && comparePrimary(ordered[start], ordered[end]) == 0 {
			end++
		}
		if end-start > 1 {
			resolveRun(ordered[start:end], position)
		}
		start = end
	}
}

func resolveRun(run []*teamStats, position map[string]int) {
	if len(run) == 2 {
		a, b := run[0], run[1]
		aWins, bWins := a.headToHeadWins[b.TeamID], b.headToHeadWins[a.TeamID]
		if aWins != bWins {
			if bWins > aWins {
				run[0], run[1] = b, a
			}
			mark(run, models.TieBreakHeadToHead)
			return
		}
	}

	if coversRun(run, position) {
		sort.SliceStable(run, func(i, j int) bool {
			return position[run[i].TeamID] < position[run[j].TeamID]
		})
		mark(run, models.TieBreakOverride)
		return
	}

	sort.SliceStable(run, func(i, j int) bool { return identityLess(run[i], run[j]) })
	mark(run, models.TieBreakIdentity)
}

// overridePositions indexes an override, or returns nil when it repeats a team.
func overridePositions(override []string) map[string]int {
	if len(override) == 0 {
		return nil
	}
	position := make(map[string]int, len(override))
	for i, id := range override {
		if _, dup := position[id]; dup || id == "" {
			return nil
		}
		position[id] = i
	}
	return position
}

func coversRun(run []*teamStats, position map[string]int) bool {
	if position == nil {
		return false
	}
	for _, entry := range run {
		if _, ok := position[entry.TeamID]; !ok {
			return false
		}
	}
	return true
}

func mark(run []*teamStats, tb models.TieBreak) {
	for _, entry := range run {
		entry.TieBreak = tb
	}
}

// TeamAtRank returns the team id holding the 1-based rank.
func TeamAtRank(entries []models.StandingsEntry, rank int) (string, bool) {
	if rank < 1 || rank > len(entries) {
		return "", false
	}
	return entries[rank-1].TeamID, true
}
