package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/Dosada05/volley-tournament/models"
)

// MemoryState is the whole content of a MemoryStore. Fields are exported so
// copystructure can snapshot them.
type MemoryState struct {
	Tournaments map[string]*models.Tournament
	Teams       map[string]*models.Team
	Pools       map[string]*models.Pool
	Matches     map[string]*models.Match
	Plans       map[string]*models.SchedulePlan
	Overrides   map[string]*models.Override
	Scoreboards map[string]*models.Scoreboard // keyed by match id
}

func newMemoryState() *MemoryState {
	return &MemoryState{
		Tournaments: make(map[string]*models.Tournament),
		Teams:       make(map[string]*models.Team),
		Pools:       make(map[string]*models.Pool),
		Matches:     make(map[string]*models.Match),
		Plans:       make(map[string]*models.SchedulePlan),
		Overrides:   make(map[string]*models.Override),
		Scoreboards: make(map[string]*models.Scoreboard),
	}
}

// MemoryStore is a Store kept in process memory. Transactions snapshot the
// state and restore it when fn fails; one transaction runs at a time.
type MemoryStore struct {
	mu    *sync.Mutex
	state **MemoryState
	inTx  bool
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	state := newMemoryState()
	return &MemoryStore{mu: &sync.Mutex{}, state: &state, now: time.Now}
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return copystructure.Must(copystructure.Copy(v)).(*T)
}

// do runs fn on the state, taking the lock unless a transaction already holds it.
func (s *MemoryStore) do(fn func(st *MemoryState) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(*s.state)
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before := clone(*s.state)
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &MemoryStore{mu: s.mu, state: s.state, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.state = before
		return err
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *MemoryStore) Snapshot() *MemoryState {
	var out *MemoryState
	_ = s.do(func(st *MemoryState) error {
		out = clone(st)
		return nil
	})
	return out
}

func (s *MemoryStore) Tournaments() TournamentRepository { return memoryTournaments{s} }
func (s *MemoryStore) Teams() TeamRepository             { return memoryTeams{s} }
func (s *MemoryStore) Pools() PoolRepository             { return memoryPools{s} }
func (s *MemoryStore) Matches() MatchRepository          { return memoryMatches{s} }
func (s *MemoryStore) Plans() PlanRepository             { return memoryPlans{s} }
func (s *MemoryStore) Overrides() OverrideRepository     { return memoryOverrides{s} }
func (s *MemoryStore) Scoreboards() ScoreboardRepository { return memoryScoreboards{s} }

type memoryTournaments struct{ s *MemoryStore }

func (r memoryTournaments) Create(_ context.Context, t *models.Tournament) error {
	return r.s.do(func(st *MemoryState) error {
		t.CreatedAt = r.s.now()
		st.Tournaments[t.ID] = clone(t)
		return nil
	})
}

func (r memoryTournaments) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.s.do(func(st *MemoryState) error {
		t, ok := st.Tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		out = clone(t)
		return nil
	})
	return out, err
}

func (r memoryTournaments) UpdateStatus(_ context.Context, id string, status models.TournamentStatus) error {
	return r.s.do(func(st *MemoryState) error {
		t, ok := st.Tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		t.Status = status
		return nil
	})
}

type memoryTeams struct{ s *MemoryStore }

func (r memoryTeams) Create(_ context.Context, team *models.Team) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Tournaments[team.TournamentID]; !ok {
			return ErrTournamentInvalid
		}
		team.CreatedAt = r.s.now()
		st.Teams[team.ID] = clone(team)
		return nil
	})
}

func (r memoryTeams) GetByID(_ context.Context, id string) (*models.Team, error) {
	var out *models.Team
	err := r.s.do(func(st *MemoryState) error {
		t, ok := st.Teams[id]
		if !ok {
			return ErrTeamNotFound
		}
		out = clone(t)
		return nil
	})
	return out, err
}

func (r memoryTeams) ListByTournament(_ context.Context, tournamentID string) ([]*models.Team, error) {
	out := make([]*models.Team, 0)
	err := r.s.do(func(st *MemoryState) error {
		for _, t := range st.Teams {
			if t.TournamentID == tournamentID {
				out = append(out, clone(t))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seed != out[j].Seed {
			return out[i].Seed < out[j].Seed
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

type memoryPools struct{ s *MemoryStore }

func (r memoryPools) Create(_ context.Context, pool *models.Pool) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Tournaments[pool.TournamentID]; !ok {
			return ErrTournamentInvalid
		}
		for _, p := range st.Pools {
			if p.TournamentID == pool.TournamentID && p.StageKey == pool.StageKey && p.Name == pool.Name {
				return ErrPoolNameConflict
			}
		}
		pool.UpdatedAt = r.s.now()
		st.Pools[pool.ID] = clone(pool)
		return nil
	})
}

func (r memoryPools) GetByID(_ context.Context, id string) (*models.Pool, error) {
	var out *models.Pool
	err := r.s.do(func(st *MemoryState) error {
		p, ok := st.Pools[id]
		if !ok {
			return ErrPoolNotFound
		}
		out = clone(p)
		return nil
	})
	return out, err
}

func (r memoryPools) ListByTournament(_ context.Context, tournamentID string) ([]*models.Pool, error) {
	out := make([]*models.Pool, 0)
	err := r.s.do(func(st *MemoryState) error {
		for _, p := range st.Pools {
			if p.TournamentID == tournamentID {
				out = append(out, clone(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StageKey != out[j].StageKey {
			return out[i].StageKey < out[j].StageKey
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

func (r memoryPools) UpdateTeams(_ context.Context, id string, teamIDs []string) error {
	return r.s.do(func(st *MemoryState) error {
		p, ok := st.Pools[id]
		if !ok {
			return ErrPoolNotFound
		}
		p.TeamIDs = append([]string(nil), teamIDs...)
		p.UpdatedAt = r.s.now()
		return nil
	})
}

type memoryMatches struct{ s *MemoryStore }

func (r memoryMatches) Create(_ context.Context, match *models.Match) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Tournaments[match.TournamentID]; !ok {
			return ErrTournamentInvalid
		}
		for _, m := range st.Matches {
			if m.TournamentID == match.TournamentID && m.SlotID == match.SlotID {
				return ErrDuplicateSlot
			}
		}
		now := r.s.now()
		match.CreatedAt, match.UpdatedAt = now, now
		st.Matches[match.ID] = clone(match)
		return nil
	})
}

func (r memoryMatches) GetByID(_ context.Context, id string) (*models.Match, error) {
	var out *models.Match
	err := r.s.do(func(st *MemoryState) error {
		m, ok := st.Matches[id]
		if !ok {
			return ErrMatchNotFound
		}
		out = clone(m)
		return nil
	})
	return out, err
}

func (r memoryMatches) GetBySlotID(_ context.Context, tournamentID, slotID string) (*models.Match, error) {
	var out *models.Match
	err := r.s.do(func(st *MemoryState) error {
		for _, m := range st.Matches {
			if m.TournamentID == tournamentID && m.SlotID == slotID {
				out = clone(m)
				return nil
			}
		}
		return ErrMatchNotFound
	})
	return out, err
}

func (r memoryMatches) ListByTournament(_ context.Context, tournamentID string) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	err := r.s.do(func(st *MemoryState) error {
		for _, m := range st.Matches {
			if m.TournamentID == tournamentID {
				out = append(out, clone(m))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundBlock != out[j].RoundBlock {
			return out[i].RoundBlock < out[j].RoundBlock
		}
		return out[i].SlotID < out[j].SlotID
	})
	return out, err
}

func (r memoryMatches) Update(_ context.Context, match *models.Match) error {
	return r.s.do(func(st *MemoryState) error {
		existing, ok := st.Matches[match.ID]
		if !ok {
			return ErrMatchNotFound
		}
		for _, m := range st.Matches {
			if m.ID != match.ID && m.TournamentID == match.TournamentID && m.SlotID == match.SlotID {
				return ErrDuplicateSlot
			}
		}
		match.CreatedAt = existing.CreatedAt
		match.UpdatedAt = r.s.now()
		st.Matches[match.ID] = clone(match)
		return nil
	})
}

func (r memoryMatches) Delete(_ context.Context, id string) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Matches[id]; !ok {
			return ErrMatchNotFound
		}
		delete(st.Matches, id)
		return nil
	})
}

type memoryPlans struct{ s *MemoryStore }

func (r memoryPlans) Get(_ context.Context, tournamentID string) (*models.SchedulePlan, error) {
	var out *models.SchedulePlan
	err := r.s.do(func(st *MemoryState) error {
		p, ok := st.Plans[tournamentID]
		if !ok {
			return ErrPlanNotFound
		}
		out = clone(p)
		return nil
	})
	return out, err
}

func (r memoryPlans) Save(_ context.Context, plan *models.SchedulePlan) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Tournaments[plan.TournamentID]; !ok {
			return ErrTournamentInvalid
		}
		stored := clone(plan)
		stored.Slots = nil
		st.Plans[plan.TournamentID] = stored
		return nil
	})
}

type memoryOverrides struct{ s *MemoryStore }

func overrideKey(tournamentID, scope string) string {
	return tournamentID + "|" + scope
}

func (r memoryOverrides) ListByTournament(_ context.Context, tournamentID string) ([]*models.Override, error) {
	out := make([]*models.Override, 0)
	err := r.s.do(func(st *MemoryState) error {
		for _, o := range st.Overrides {
			if o.TournamentID == tournamentID {
				out = append(out, clone(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ScopeKey < out[j].ScopeKey })
	return out, err
}

func (r memoryOverrides) Upsert(_ context.Context, o *models.Override) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Tournaments[o.TournamentID]; !ok {
			return ErrTournamentInvalid
		}
		st.Overrides[overrideKey(o.TournamentID, o.ScopeKey)] = clone(o)
		return nil
	})
}

func (r memoryOverrides) Delete(_ context.Context, tournamentID, scopeKey string) error {
	return r.s.do(func(st *MemoryState) error {
		key := overrideKey(tournamentID, scopeKey)
		if _, ok := st.Overrides[key]; !ok {
			return ErrOverrideNotFound
		}
		delete(st.Overrides, key)
		return nil
	})
}

type memoryScoreboards struct{ s *MemoryStore }

func (r memoryScoreboards) Create(_ context.Context, sb *models.Scoreboard) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Matches[sb.MatchID]; !ok {
			return ErrMatchInvalid
		}
		if _, ok := st.Scoreboards[sb.MatchID]; ok {
			return ErrScoreboardConflict
		}
		sb.UpdatedAt = r.s.now()
		st.Scoreboards[sb.MatchID] = clone(sb)
		return nil
	})
}

func (r memoryScoreboards) GetByMatch(_ context.Context, matchID string) (*models.Scoreboard, error) {
	var out *models.Scoreboard
	err := r.s.do(func(st *MemoryState) error {
		sb, ok := st.Scoreboards[matchID]
		if !ok {
			return ErrScoreboardNotFound
		}
		out = clone(sb)
		return nil
	})
	return out, err
}

func (r memoryScoreboards) SaveSets(_ context.Context, matchID string, sets []models.SetScore) error {
	return r.s.do(func(st *MemoryState) error {
		sb, ok := st.Scoreboards[matchID]
		if !ok {
			return ErrScoreboardNotFound
		}
		sb.Sets = append([]models.SetScore{}, sets...)
		sb.UpdatedAt = r.s.now()
		return nil
	})
}

func (r memoryScoreboards) DeleteByMatch(_ context.Context, matchID string) error {
	return r.s.do(func(st *MemoryState) error {
		if _, ok := st.Scoreboards[matchID]; !ok {
			return ErrScoreboardNotFound
		}
		delete(st.Scoreboards, matchID)
		return nil
	})
}
