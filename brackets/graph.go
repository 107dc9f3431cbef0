package brackets

import "github.com/Dosada05/volley-tournament/models"

// Edge says that the Outcome of the source match fills Side of match To.
type Edge struct {
	To      string         `json:"to"`
	Side    models.Side    `json:"side"`
	Outcome models.Outcome `json:"outcome"`
}

// Graph is the forward dependency graph of playoff matches: source match id to
// the matches fed by it. It is built once and used for both propagation and
// cascade invalidation.
type Graph struct {
	out map[string][]Edge
}

func NewGraph() *Graph {
	return &Graph{out: make(map[string][]Edge)}
}

func (g *Graph) AddEdge(from string, e Edge) {
	for _, existing := range g.out[from] {
		if existing == e {
			return
		}
	}
	g.out[from] = append(g.out[from], e)
}

// Dependents returns the edges leaving id in insertion order.
func (g *Graph) Dependents(id string) []Edge {
	edges := g.out[id]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// Downstream returns every node reachable from id, breadth first, without id itself.
func (g *Graph) Downstream(id string) []string {
	seen := map[string]bool{id: true}
	queue := []string{id}
	var order []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.out[cur] {
			if seen[e.To] {
				continue
			}
			seen[e.To] = true
			order = append(order, e.To)
			queue = append(queue, e.To)
		}
	}
	return order
}

// PlanGraph builds the graph of a bracket plan keyed by Node.ID.
func PlanGraph(nodes []Node) *Graph {
	g := NewGraph()
	for _, n := range nodes {
		for _, side := range []models.Side{models.SideA, models.SideB} {
			if f := n.From(side); f != nil {
				g.AddEdge(PositionID(f.Round, f.MatchNo), Edge{To: n.ID(), Side: side, Outcome: f.Outcome})
			}
		}
	}
	return g
}

// MatchGraph builds the graph of persisted matches from their declared sources.
func MatchGraph(matches []*models.Match) *Graph {
	g := NewGraph()
	for _, m := range matches {
		for _, side := range []models.Side{models.SideA, models.SideB} {
			if src := m.Source(side); src != nil && src.MatchID != "" {
				g.AddEdge(src.MatchID, Edge{To: m.ID, Side: side, Outcome: src.Outcome})
			}
		}
	}
	return g
}
