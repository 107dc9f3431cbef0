package services

import (
	"github.com/Dosada05/volley-tournament/models"
)

const setsToWin = 2

// ComputeResult derives the result of a best-of-three match from its set
// history, side A first. Two sets must be a sweep; a third set is only played
// at one set all.
func ComputeResult(teamA, teamB string, sets []models.SetScore) (*models.Result, error) {
	if len(sets) < setsToWin || len(sets) > 2*setsToWin-1 {
		return nil, ErrSetCount
	}

	r := &models.Result{Sets: append([]models.SetScore(nil), sets...)}
	for _, s := range sets {
		if s.A < 0 || s.B < 0 {
			return nil, ErrInvalidSetScore
		}
		if s.A == s.B {
			return nil, ErrTiedSet
		}
		// the match is over once a side has two sets
		if r.SetsA == setsToWin || r.SetsB == setsToWin {
			return nil, ErrNoDecision
		}
		if s.A > s.B {
			r.SetsA++
		} else {
			r.SetsB++
		}
		r.PointsA += s.A
		r.PointsB += s.B
	}

	switch {
	case r.SetsA == setsToWin:
		r.WinnerID, r.LoserID = teamA, teamB
	case r.SetsB == setsToWin:
		r.WinnerID, r.LoserID = teamB, teamA
	default:
		return nil, ErrNoDecision
	}
	return r, nil
}
