package brackets

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/volley-tournament/models"
)

var ErrMalformedPlan = errors.New("malformed bracket plan")

// Definition is a validated bracket declaration.
type Definition struct {
	Label string
	Shape Shape
}

// Feed points a node side at an earlier node of the same bracket.
type Feed struct {
	Round   int            `json:"round"`
	MatchNo int            `json:"match_no"`
	Outcome models.Outcome `json:"outcome"`
}

// Node is one playoff match of a bracket plan. Each side has either a seed or a feed.
type Node struct {
	Bracket string `json:"bracket"`
	Round   int    `json:"round"`
	MatchNo int    `json:"match_no"`
	SeedA   *int   `json:"seed_a,omitempty"`
	SeedB   *int   `json:"seed_b,omitempty"`
	FromA   *Feed  `json:"from_a,omitempty"`
	FromB   *Feed  `json:"from_b,omitempty"`
	// Key is the display key built from the seeds feeding each side, e.g. "4v5", "1vW45".
	Key string `json:"key"`
}

// ID is the node's position in its bracket, e.g. "R2M1".
func (n Node) ID() string {
	return PositionID(n.Round, n.MatchNo)
}

func PositionID(round, matchNo int) string {
	return fmt.Sprintf("R%dM%d", round, matchNo)
}

func (n Node) Seed(side models.Side) *int {
	if side == models.SideA {
		return n.SeedA
	}
	return n.SeedB
}

func (n Node) From(side models.Side) *Feed {
	if side == models.SideA {
		return n.FromA
	}
	return n.FromB
}

// BuildBracketPlan returns the nodes of the bracket ordered by round then match number.
func BuildBracketPlan(def Definition) ([]Node, error) {
	var nodes []Node
	switch shape := def.Shape.(type) {
	case SingleElimination:
		if shape.size == 0 {
			return nil, fmt.Errorf("%w: single elimination without size", ErrUnknownShape)
		}
		nodes = singleEliminationNodes(def.Label, shape.size)
	case SixTeamBye:
		nodes = sixTeamByeNodes(def.Label)
	case FiveTeamOps:
		nodes = fiveTeamOpsNodes(def.Label)
	case nil:
		return nil, fmt.Errorf("%w: bracket %q has no shape", ErrUnknownShape, def.Label)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownShape, shape)
	}

	labelNodes(nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Round != nodes[j].Round {
			return nodes[i].Round < nodes[j].Round
		}
		return nodes[i].MatchNo < nodes[j].MatchNo
	})
	if err := checkPlan(nodes); err != nil {
		return nil, fmt.Errorf("bracket %q: %w", def.Label, err)
	}
	return nodes, nil
}

// checkPlan requires every feed to come from an earlier round of the plan and
// every node to lead to the final, the last node.
func checkPlan(nodes []Node) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrMalformedPlan)
	}
	rounds := make(map[string]int, len(nodes))
	for _, n := range nodes {
		rounds[n.ID()] = n.Round
	}
	for _, n := range nodes {
		for _, side := range []models.Side{models.SideA, models.SideB} {
			f := n.From(side)
			if f == nil {
				continue
			}
			round, ok := rounds[PositionID(f.Round, f.MatchNo)]
			if !ok || round >= n.Round {
				return fmt.Errorf("%w: %s is fed by %s", ErrMalformedPlan, n.ID(), PositionID(f.Round, f.MatchNo))
			}
		}
	}

	final := nodes[len(nodes)-1].ID()
	g := PlanGraph(nodes)
	for _, n := range nodes[:len(nodes)-1] {
		if !slices.Contains(g.Downstream(n.ID()), final) {
			return fmt.Errorf("%w: %s does not lead to %s", ErrMalformedPlan, n.ID(), final)
		}
	}
	return nil
}

// standardOrder lists seeds in bracket order so that seed s meets size+1-s in
// round 1 and the top two seeds can only meet in the final.
func standardOrder(size int) []int {
	order := []int{1, 2}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		n := len(order)*2 + 1
		for _, s := range order {
			next = append(next, s, n-s)
		}
		order = next
	}
	return order
}

func singleEliminationNodes(label string, size int) []Node {
	order := standardOrder(size)
	nodes := make([]Node, 0, size-1)

	round := 1
	for i := 0; i < len(order); i += 2 {
		nodes = append(nodes, Node{
			Bracket: label,
			Round:   round,
			MatchNo: i/2 + 1,
			SeedA:   seed(order[i]),
			SeedB:   seed(order[i+1]),
		})
	}

	for inRound := size / 4; inRound >= 1; inRound /= 2 {
		round++
		for m := 1; m <= inRound; m++ {
			nodes = append(nodes, Node{
				Bracket: label,
				Round:   round,
				MatchNo: m,
				FromA:   winnerOf(round-1, 2*m-1),
				FromB:   winnerOf(round-1, 2*m),
			})
		}
	}
	return nodes
}

func sixTeamByeNodes(label string) []Node {
	return []Node{
		{Bracket: label, Round: 1, MatchNo: 1, SeedA: seed(4), SeedB: seed(5)},
		{Bracket: label, Round: 1, MatchNo: 2, SeedA: seed(3), SeedB: seed(6)},
		{Bracket: label, Round: 2, MatchNo: 1, SeedA: seed(1), FromB: winnerOf(1, 1)},
		{Bracket: label, Round: 2, MatchNo: 2, SeedA: seed(2), FromB: winnerOf(1, 2)},
		{Bracket: label, Round: 3, MatchNo: 1, FromA: winnerOf(2, 1), FromB: winnerOf(2, 2)},
	}
}

func fiveTeamOpsNodes(label string) []Node {
	return []Node{
		{Bracket: label, Round: 1, MatchNo: 1, SeedA: seed(4), SeedB: seed(5)},
		{Bracket: label, Round: 1, MatchNo: 2, SeedA: seed(2), SeedB: seed(3)},
		{Bracket: label, Round: 2, MatchNo: 1, SeedA: seed(1), FromB: winnerOf(1, 1)},
		// the 2v3 winner skips round 2
		{Bracket: label, Round: 3, MatchNo: 1, FromA: winnerOf(2, 1), FromB: winnerOf(1, 2)},
	}
}

// labelNodes fills Key from the seeds feeding each side: "4v5", "1vW45", "W145vW23".
func labelNodes(nodes []Node) {
	byID := make(map[string]*Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID()] = &nodes[i]
	}

	var seedsOf func(n *Node) []int
	side := func(s *int, f *Feed) []int {
		if s != nil {
			return []int{*s}
		}
		if f == nil {
			return nil
		}
		if feeder, ok := byID[PositionID(f.Round, f.MatchNo)]; ok {
			return seedsOf(feeder)
		}
		return nil
	}
	seedsOf = func(n *Node) []int {
		out := append(side(n.SeedA, n.FromA), side(n.SeedB, n.FromB)...)
		sort.Ints(out)
		return out
	}

	sideKey := func(s *int, f *Feed) string {
		if s != nil {
			return strconv.Itoa(*s)
		}
		prefix := "W"
		if f != nil && f.Outcome == models.OutcomeLoser {
			prefix = "L"
		}
		return prefix + joinSeeds(side(s, f))
	}

	for i := range nodes {
		n := &nodes[i]
		n.Key = sideKey(n.SeedA, n.FromA) + "v" + sideKey(n.SeedB, n.FromB)
	}
}

func joinSeeds(seeds []int) string {
	sep := ""
	for _, s := range seeds {
		if s > 9 {
			sep = "."
			break
		}
	}
	parts := make([]string, len(seeds))
	for i, s := range seeds {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, sep)
}

func seed(n int) *int {
	return &n
}

func winnerOf(round, matchNo int) *Feed {
	return &Feed{Round: round, MatchNo: matchNo, Outcome: models.OutcomeWinner}
}
