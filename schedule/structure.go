// Package schedule derives the slot plan of a tournament from its format and
// reconciles it against stored pools and matches.
package schedule

import (
	"fmt"
	"sort"

	"github.com/Dosada05/volley-tournament/brackets"
	"github.com/Dosada05/volley-tournament/formats"
	"github.com/Dosada05/volley-tournament/models"
)

// PoolSlotID, CrossoverSlotID, LunchSlotID and PlayoffSlotID build the stable slot ids.
func PoolSlotID(stage, pool string, index int) string {
	return fmt.Sprintf("%s:%s:M%d", stage, pool, index)
}

func CrossoverSlotID(stage, crossover string, pairing int) string {
	return fmt.Sprintf("%s:%s:X%d", stage, crossover, pairing)
}

func LunchSlotID(stage string) string {
	return stage + ":lunch"
}

func PlayoffSlotID(stage, bracket string, round, matchNo int) string {
	return fmt.Sprintf("%s:%s:%s", stage, bracket, brackets.PositionID(round, matchNo))
}

// Structure is the unresolved slot plan: every participant is still a placeholder.
type Structure struct {
	Format *models.Format
	Slots  []models.Slot

	// bracket nodes per playoff stage, keyed by slot id
	nodes map[string]brackets.Node
	// slot ids per stage, and per "stage/pool" for pool play
	byScope map[string][]string
	index   map[string]int
}

// Slot returns the structural slot with the given id.
func (s *Structure) Slot(id string) (models.Slot, bool) {
	i, ok := s.index[id]
	if !ok {
		return models.Slot{}, false
	}
	return s.Slots[i], true
}

// ScopeSlots returns the match slot ids of a stage ("pool") or of one pool ("pool/A").
func (s *Structure) ScopeSlots(scope string) []string {
	return s.byScope[scope]
}

// Node returns the bracket node behind a playoff slot.
func (s *Structure) Node(slotID string) (brackets.Node, bool) {
	n, ok := s.nodes[slotID]
	return n, ok
}

type structureBuilder struct {
	s         *Structure
	courts    []string
	maxCourts int
	block     int
}

// BuildStructure lays out every slot of the format. courts are the tournament's
// courts in order; defaultMaxCourts caps concurrent playoff matches when a stage
// does not declare its own limit. A format without stages yields an empty structure.
func BuildStructure(f *models.Format, courts []string, defaultMaxCourts int) (*Structure, error) {
	if err := formats.Validate(f); err != nil {
		return nil, err
	}
	b := &structureBuilder{
		s: &Structure{
			Format:  f,
			nodes:   make(map[string]brackets.Node),
			byScope: make(map[string][]string),
			index:   make(map[string]int),
		},
		courts:    courts,
		maxCourts: defaultMaxCourts,
	}

	for i := range f.Stages {
		stage := &f.Stages[i]
		var err error
		switch stage.Type {
		case models.StagePoolPlay:
			err = b.poolPlay(stage)
		case models.StageCrossover:
			err = b.crossover(stage)
		case models.StagePlayoffs:
			err = b.playoffs(stage)
		}
		if err != nil {
			return nil, err
		}
		if stage.LunchAfter {
			b.block++
			b.add(models.Slot{
				ID:         LunchSlotID(stage.Key),
				StageKey:   stage.Key,
				Kind:       models.SlotLunch,
				RoundBlock: b.block,
				Label:      "Lunch",
			})
		}
	}
	return b.s, nil
}

func (b *structureBuilder) court(i int) string {
	if len(b.courts) == 0 {
		return fmt.Sprintf("Court %d", i+1)
	}
	return b.courts[i%len(b.courts)]
}

// concurrent is the number of courts usable at once.
func (b *structureBuilder) concurrent(pools int) int {
	if len(b.courts) == 0 {
		return pools
	}
	return len(b.courts)
}

func (b *structureBuilder) add(slot models.Slot) {
	b.s.index[slot.ID] = len(b.s.Slots)
	b.s.Slots = append(b.s.Slots, slot)
	if slot.Kind != models.SlotMatch {
		return
	}
	b.s.byScope[slot.StageKey] = append(b.s.byScope[slot.StageKey], slot.ID)
	if slot.Pool != "" {
		scope := slot.StageKey + "/" + slot.Pool
		b.s.byScope[scope] = append(b.s.byScope[scope], slot.ID)
	}
}

// poolPlay gives pool i the court i mod len(courts). Pools sharing a court play in
// successive waves.
func (b *structureBuilder) poolPlay(stage *models.Stage) error {
	width := b.concurrent(len(stage.Pools))
	longest := 0
	templates := make([][]brackets.MatchTemplate, len(stage.Pools))
	for i, p := range stage.Pools {
		t, err := brackets.RoundRobinTemplate(p.Size)
		if err != nil {
			return err
		}
		templates[i] = t
		longest = max(longest, len(t))
	}

	base := b.block
	waves := 0
	for i, p := range stage.Pools {
		wave := i / width
		waves = max(waves, wave+1)
		court := b.court(i)
		for _, mt := range templates[i] {
			rank := func(pos int) *models.ParticipantRef {
				ref := models.RankParticipant(models.RankRef{StageKey: stage.Key, Pool: p.Name, Rank: pos + 1, Basis: models.BasisRoster})
				return &ref
			}
			slot := models.Slot{
				ID:         PoolSlotID(stage.Key, p.Name, mt.Index),
				StageKey:   stage.Key,
				Kind:       models.SlotMatch,
				RoundBlock: base + wave*longest + mt.Index,
				Court:      court,
				Pool:       p.Name,
				Label:      fmt.Sprintf("%s%d v %s%d", p.Name, mt.A+1, p.Name, mt.B+1),
				A:          rank(mt.A),
				B:          rank(mt.B),
				Referee:    rank(mt.Referee),
			}
			if mt.Bye != brackets.NoBye {
				slot.Byes = []models.ParticipantRef{*rank(mt.Bye)}
			}
			b.add(slot)
		}
	}
	b.block = base + waves*longest
	return nil
}

// crossover pairs A(i) with B(i). The referee of pairing i is A(i+1), the last
// pairing is refereed by B(n-1); every other team of the two pools has a bye.
func (b *structureBuilder) crossover(stage *models.Stage) error {
	source, ok := b.s.Format.Stage(stage.SourceStage)
	if !ok {
		return fmt.Errorf("%w: stage %s: unknown source stage %s", formats.ErrInvalidFormat, stage.Key, stage.SourceStage)
	}
	sizes := make(map[string]int, len(source.Pools))
	for _, p := range source.Pools {
		sizes[p.Name] = p.Size
	}

	base := b.block
	longest := 0
	for j, x := range stage.Crossovers {
		poolA, poolB := x.Pools[0], x.Pools[1]
		n := min(sizes[poolA], sizes[poolB])
		longest = max(longest, n)
		court := x.Court
		if court == "" {
			court = b.court(j)
		}
		rank := func(pool string, r int) models.ParticipantRef {
			return models.RankParticipant(models.RankRef{StageKey: source.Key, Pool: pool, Rank: r, Basis: models.BasisStandings})
		}

		for i := 1; i <= n; i++ {
			a, bb := rank(poolA, i), rank(poolB, i)
			slot := models.Slot{
				ID:         CrossoverSlotID(stage.Key, x.Name, i),
				StageKey:   stage.Key,
				Kind:       models.SlotMatch,
				RoundBlock: base + i,
				Court:      court,
				Label:      fmt.Sprintf("%s%d v %s%d", poolA, i, poolB, i),
				A:          &a,
				B:          &bb,
			}

			refPool, refRank := poolA, i+1
			if i == n {
				refPool, refRank = poolB, n-1
			}
			if refRank >= 1 {
				ref := rank(refPool, refRank)
				slot.Referee = &ref
			}
			for _, pool := range []string{poolA, poolB} {
				for r := 1; r <= sizes[pool]; r++ {
					if r == i || (pool == refPool && r == refRank) {
						continue
					}
					slot.Byes = append(slot.Byes, rank(pool, r))
				}
			}
			b.add(slot)
		}
	}
	b.block = base + longest
	return nil
}

// playoffs lays out every bracket node. The matches of one round, across all
// brackets, are chunked by the concurrent court limit with one round block per chunk.
func (b *structureBuilder) playoffs(stage *models.Stage) error {
	defs, err := formats.Definitions(stage)
	if err != nil {
		return err
	}

	limit := stage.MaxCourts
	if limit <= 0 {
		limit = b.maxCourts
	}
	if limit <= 0 {
		limit = b.concurrent(len(defs))
	}
	if len(b.courts) > 0 {
		limit = min(limit, len(b.courts))
	}
	limit = max(limit, 1)

	type placed struct {
		node  brackets.Node
		seeds []int
	}
	byRound := make(map[int][]placed)
	rounds := make([]int, 0)
	for i, def := range defs {
		nodes, err := brackets.BuildBracketPlan(def)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if _, seen := byRound[n.Round]; !seen {
				rounds = append(rounds, n.Round)
			}
			byRound[n.Round] = append(byRound[n.Round], placed{node: n, seeds: stage.Brackets[i].Seeds})
		}
	}
	sort.Ints(rounds)

	for _, round := range rounds {
		matches := byRound[round]
		for start := 0; start < len(matches); start += limit {
			b.block++
			end := min(start+limit, len(matches))
			for j, p := range matches[start:end] {
				n := p.node
				id := PlayoffSlotID(stage.Key, n.Bracket, n.Round, n.MatchNo)
				side := func(seed *int, feed *brackets.Feed) *models.ParticipantRef {
					var ref models.ParticipantRef
					switch {
					case seed != nil:
						ref = models.RankParticipant(models.RankRef{StageKey: stage.Key, Rank: p.seeds[*seed-1], Basis: models.BasisStandings})
					case feed != nil:
						ref = models.OutcomeParticipant(PlayoffSlotID(stage.Key, n.Bracket, feed.Round, feed.MatchNo), feed.Outcome)
					default:
						return nil
					}
					return &ref
				}
				b.add(models.Slot{
					ID:         id,
					StageKey:   stage.Key,
					Kind:       models.SlotMatch,
					RoundBlock: b.block,
					Court:      b.court(j),
					Bracket:    n.Bracket,
					Label:      n.Key,
					A:          side(n.SeedA, n.FromA),
					B:          side(n.SeedB, n.FromB),
				})
				b.s.nodes[id] = n
			}
		}
	}
	return nil
}
