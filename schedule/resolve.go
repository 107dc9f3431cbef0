package schedule

import (
	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/standings"
)

// Snapshot is the stored state of one tournament read at the start of an operation.
type Snapshot struct {
	Tournament *models.Tournament
	Teams      []*models.Team
	Pools      []*models.Pool
	Matches    []*models.Match
	Overrides  []*models.Override
}

// Resolver turns placeholders into teams against one snapshot. Standings are
// computed once per scope.
type Resolver struct {
	st        *Structure
	teams     map[string]*models.Team
	pools     map[string]*models.Pool
	bySlot    map[string]*models.Match
	overrides map[string][]string
	cache     map[string]ranking
}

type ranking struct {
	entries  []models.StandingsEntry
	complete bool
}

func NewResolver(st *Structure, snap *Snapshot) *Resolver {
	r := &Resolver{
		st:        st,
		teams:     models.TeamIndex(snap.Teams),
		pools:     make(map[string]*models.Pool, len(snap.Pools)),
		bySlot:    make(map[string]*models.Match, len(snap.Matches)),
		overrides: make(map[string][]string, len(snap.Overrides)),
		cache:     make(map[string]ranking),
	}
	for _, p := range snap.Pools {
		r.pools[p.StageKey+"/"+p.Name] = p
	}
	for _, m := range snap.Matches {
		if m.SlotID != "" {
			r.bySlot[m.SlotID] = m
		}
	}
	for _, o := range snap.Overrides {
		r.overrides[o.ScopeKey] = o.TeamIDs
	}
	return r
}

// Match returns the stored match of a slot.
func (r *Resolver) Match(slotID string) *models.Match {
	return r.bySlot[slotID]
}

func (r *Resolver) Pool(stage, name string) *models.Pool {
	return r.pools[stage+"/"+name]
}

// Complete reports whether every match slot of the scope has a final match.
// An empty scope is never complete.
func (r *Resolver) Complete(scope string) bool {
	ids := r.st.ScopeSlots(scope)
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		m := r.bySlot[id]
		if m == nil || !m.IsFinal() {
			return false
		}
	}
	return true
}

func (r *Resolver) scopeMatches(scopes ...string) []*models.Match {
	var out []*models.Match
	for _, scope := range scopes {
		for _, id := range r.st.ScopeSlots(scope) {
			if m := r.bySlot[id]; m != nil {
				out = append(out, m)
			}
		}
	}
	return out
}

// PoolStandings ranks one pool from its final matches. complete is false until
// the roster is full and every pool match is final.
func (r *Resolver) PoolStandings(stage, pool string) (entries []models.StandingsEntry, complete bool) {
	scope := stage + "/" + pool
	if cached, ok := r.cache[scope]; ok {
		return cached.entries, cached.complete
	}
	p := r.pools[scope]
	var roster []*models.Team
	if p != nil {
		for _, id := range p.TeamIDs {
			if t, ok := r.teams[id]; ok {
				roster = append(roster, t)
			}
		}
	}
	entries = standings.Compute(standings.Scope{Key: scope, Teams: roster}, r.scopeMatches(scope), r.overrides[scope])
	complete = p.IsFull() && len(roster) == p.Size && r.Complete(scope)
	r.cache[scope] = ranking{entries: entries, complete: complete}
	return entries, complete
}

// rankedStages lists the stages whose results make up the cumulative ranking of stage.
func (r *Resolver) rankedStages(stage *models.Stage) []string {
	if stage.Type == models.StagePlayoffs {
		return stage.SeedFrom
	}
	var keys []string
	for _, s := range r.st.Format.Stages {
		if s.Type == models.StagePlayoffs {
			continue
		}
		keys = append(keys, s.Key)
		if s.Key == stage.Key {
			break
		}
	}
	return keys
}

// StageStandings is the cumulative ranking used for playoff seeding: every team
// on a pool play roster, ranked over the final matches of the ranked stages.
func (r *Resolver) StageStandings(stageKey string) (entries []models.StandingsEntry, complete bool) {
	if cached, ok := r.cache[stageKey]; ok {
		return cached.entries, cached.complete
	}
	stage, ok := r.st.Format.Stage(stageKey)
	if !ok {
		return nil, false
	}
	keys := r.rankedStages(stage)

	var roster []*models.Team
	complete = len(keys) > 0
	for _, s := range r.st.Format.Stages {
		if s.Type != models.StagePoolPlay {
			continue
		}
		for _, spec := range s.Pools {
			p := r.pools[s.Key+"/"+spec.Name]
			if !p.IsFull() {
				complete = false
				continue
			}
			for _, id := range p.TeamIDs {
				if t, ok := r.teams[id]; ok {
					roster = append(roster, t)
				} else {
					complete = false
				}
			}
		}
	}
	for _, key := range keys {
		if !r.Complete(key) {
			complete = false
		}
	}

	entries = standings.Compute(standings.Scope{Key: stageKey, Teams: roster}, r.scopeMatches(keys...), r.overrides[stageKey])
	r.cache[stageKey] = ranking{entries: entries, complete: complete}
	return entries, complete
}

// Resolve returns ref as a team reference when its source allows, or ref unchanged.
func (r *Resolver) Resolve(ref models.ParticipantRef) models.ParticipantRef {
	if ref.IsTeam() {
		return ref
	}
	pending := ref.Pending()
	teamID := r.teamFor(pending)
	if teamID == "" {
		return pending
	}
	return pending.Resolve(teamID)
}

func (r *Resolver) teamFor(ref models.ParticipantRef) string {
	switch {
	case ref.Rank != nil:
		rank := *ref.Rank
		if rank.Basis == models.BasisRoster {
			p := r.pools[rank.StageKey+"/"+rank.Pool]
			if !p.IsFull() {
				return ""
			}
			id := p.TeamAt(rank.Rank - 1)
			if _, ok := r.teams[id]; !ok {
				return ""
			}
			return id
		}

		var entries []models.StandingsEntry
		var complete bool
		if rank.Pool != "" {
			entries, complete = r.PoolStandings(rank.StageKey, rank.Pool)
		} else {
			entries, complete = r.StageStandings(rank.StageKey)
		}
		if !complete {
			return ""
		}
		id, _ := standings.TeamAtRank(entries, rank.Rank)
		return id

	case ref.Outcome != nil:
		m := r.bySlot[ref.Outcome.SlotID]
		if m == nil {
			return ""
		}
		return m.OutcomeTeam(ref.Outcome.Outcome)
	}
	return ""
}
