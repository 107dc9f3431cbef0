package brackets

import (
	"errors"
	"fmt"
)

var ErrUnsupportedPoolSize = errors.New("unsupported pool size")

// NoBye marks a template match where every team not playing is refereeing.
const NoBye = -1

// MatchTemplate is one pool match expressed in 0-based roster positions.
type MatchTemplate struct {
	Index   int `json:"index"`
	A       int `json:"a"`
	B       int `json:"b"`
	Referee int `json:"referee"`
	Bye     int `json:"bye"`
}

// Fixed orders. Changing them changes every stored slot id of a running tournament.
var (
	threeTeamTemplate = []MatchTemplate{
		{Index: 1, A: 0, B: 2, Referee: 1, Bye: NoBye},
		{Index: 2, A: 1, B: 2, Referee: 0, Bye: NoBye},
		{Index: 3, A: 0, B: 1, Referee: 2, Bye: NoBye},
	}
	fourTeamTemplate = []MatchTemplate{
		{Index: 1, A: 0, B: 2, Referee: 1, Bye: 3},
		{Index: 2, A: 1, B: 3, Referee: 0, Bye: 2},
		{Index: 3, A: 0, B: 3, Referee: 2, Bye: 1},
		{Index: 4, A: 1, B: 2, Referee: 3, Bye: 0},
		{Index: 5, A: 0, B: 1, Referee: 3, Bye: 2},
		{Index: 6, A: 2, B: 3, Referee: 1, Bye: 0},
	}
)

// RoundRobinTemplate returns the fixed match order for a pool of the given size.
// Only pools of 3 and 4 are supported.
func RoundRobinTemplate(size int) ([]MatchTemplate, error) {
	var template []MatchTemplate
	switch size {
	case 3:
		template = threeTeamTemplate
	case 4:
		template = fourTeamTemplate
	default:
		return nil, fmt.Errorf("%w: %d (supported: 3, 4)", ErrUnsupportedPoolSize, size)
	}
	out := make([]MatchTemplate, len(template))
	copy(out, template)
	return out, nil
}

// RoundRobinMatch is a template bound to a concrete roster.
type RoundRobinMatch struct {
	Index   int    `json:"index"`
	TeamA   string `json:"team_a"`
	TeamB   string `json:"team_b"`
	Referee string `json:"referee"`
	Bye     string `json:"bye,omitempty"`
}

// GenerateRoundRobin binds the template for len(teamOrder) to the given roster order.
func GenerateRoundRobin(poolSize int, teamOrder []string) ([]RoundRobinMatch, error) {
	if len(teamOrder) != poolSize {
		return nil, fmt.Errorf("round robin for %d teams got %d team ids", poolSize, len(teamOrder))
	}
	template, err := RoundRobinTemplate(poolSize)
	if err != nil {
		return nil, err
	}

	matches := make([]RoundRobinMatch, 0, len(template))
	for _, mt := range template {
		m := RoundRobinMatch{
			Index:   mt.Index,
			TeamA:   teamOrder[mt.A],
			TeamB:   teamOrder[mt.B],
			Referee: teamOrder[mt.Referee],
		}
		if mt.Bye != NoBye {
			m.Bye = teamOrder[mt.Bye]
		}
		matches = append(matches, m)
	}
	return matches, nil
}
