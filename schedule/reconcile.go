package schedule

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/volley-tournament/models"
)

// Options supplies identity and time to Reconcile.
type Options struct {
	NewID func() string
	Now   func() time.Time
}

func (o Options) withDefaults() Options {
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Changes is the result of reconciling a structure against a snapshot: the
// resolved slots and the match writes that make the store agree with them.
type Changes struct {
	Slots  []models.Slot
	Create []*models.Match
	Update []*models.Match
	Delete []*models.Match
	// Orphans are started matches whose slot no longer exists in the format.
	Orphans []*models.Match
}

func (c *Changes) Empty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

type reconciler struct {
	st      *Structure
	snap    *Snapshot
	r       *Resolver
	opts    Options
	now     time.Time
	changes *Changes
	// match per slot after this pass's creates and updates
	current map[string]*models.Match
}

// Reconcile resolves every slot and decides which matches to create, update or delete.
// It reads only snap, so running it twice on the same snapshot yields the same writes
// apart from generated ids.
func Reconcile(st *Structure, snap *Snapshot, opts Options) *Changes {
	opts = opts.withDefaults()
	rc := &reconciler{
		st:      st,
		snap:    snap,
		r:       NewResolver(st, snap),
		opts:    opts,
		now:     opts.Now(),
		changes: &Changes{Slots: make([]models.Slot, 0, len(st.Slots))},
		current: make(map[string]*models.Match),
	}

	// brackets are handled as a whole the first time one of their slots comes up
	doneBrackets := make(map[string]bool)
	for _, slot := range st.Slots {
		switch {
		case slot.Kind != models.SlotMatch:
			rc.changes.Slots = append(rc.changes.Slots, slot)
		case slot.Bracket != "":
			key := slot.StageKey + ":" + slot.Bracket
			if !doneBrackets[key] {
				doneBrackets[key] = true
				rc.bracket(slot.StageKey, slot.Bracket)
			}
		default:
			rc.changes.Slots = append(rc.changes.Slots, rc.poolOrCrossover(slot))
		}
	}

	for _, m := range snap.Matches {
		if _, ok := st.Slot(m.SlotID); ok {
			continue
		}
		if m.Status == models.MatchScheduled {
			rc.changes.Delete = append(rc.changes.Delete, m)
		} else {
			rc.changes.Orphans = append(rc.changes.Orphans, m)
		}
	}
	return rc.changes
}

func (rc *reconciler) resolveSlot(slot models.Slot) models.Slot {
	out := slot
	if slot.A != nil {
		a := rc.r.Resolve(*slot.A)
		out.A = &a
	}
	if slot.B != nil {
		b := rc.r.Resolve(*slot.B)
		out.B = &b
	}
	if slot.Referee != nil {
		ref := rc.r.Resolve(*slot.Referee)
		out.Referee = &ref
	}
	if len(slot.Byes) > 0 {
		out.Byes = make([]models.ParticipantRef, len(slot.Byes))
		for i, bye := range slot.Byes {
			out.Byes[i] = rc.r.Resolve(bye)
		}
	}
	out.MatchID = ""
	return out
}

// pin makes the slot show the teams the started match is actually played with.
func pin(slot *models.Slot, m *models.Match) {
	pinRef := func(ref *models.ParticipantRef, teamID *string) *models.ParticipantRef {
		if ref == nil {
			return nil
		}
		p := ref.Pending()
		if id := models.Deref(teamID); id != "" {
			p = p.Resolve(id)
		}
		return &p
	}
	slot.A = pinRef(slot.A, m.TeamAID)
	slot.B = pinRef(slot.B, m.TeamBID)
	if slot.Referee != nil && len(m.RefereeIDs) > 0 {
		slot.Referee = pinRef(slot.Referee, &m.RefereeIDs[0])
	}
	if len(m.ByeTeamIDs) == len(slot.Byes) {
		for i := range slot.Byes {
			slot.Byes[i] = *pinRef(&slot.Byes[i], &m.ByeTeamIDs[i])
		}
	}
}

func teamIDs(refs ...*models.ParticipantRef) []string {
	var out []string
	for _, ref := range refs {
		if ref != nil && ref.IsTeam() {
			out = append(out, ref.TeamID)
		}
	}
	return out
}

func (rc *reconciler) poolOrCrossover(structural models.Slot) models.Slot {
	slot := rc.resolveSlot(structural)
	existing := rc.r.Match(slot.ID)

	if existing != nil && existing.Status != models.MatchScheduled {
		pin(&slot, existing)
		if slot.Resolved() {
			slot.MatchID = existing.ID
		}
		return slot
	}

	if !slot.Resolved() {
		if existing != nil {
			rc.changes.Delete = append(rc.changes.Delete, existing)
		}
		return slot
	}

	byes := make([]*models.ParticipantRef, len(slot.Byes))
	for i := range slot.Byes {
		byes[i] = &slot.Byes[i]
	}
	want := models.Match{
		TournamentID: rc.snap.Tournament.ID,
		SlotID:       slot.ID,
		StageKey:     slot.StageKey,
		MatchKey:     slot.Label,
		RoundBlock:   slot.RoundBlock,
		Court:        slot.Court,
		TeamAID:      models.StringPtr(slot.A.TeamID),
		TeamBID:      models.StringPtr(slot.B.TeamID),
		RefereeIDs:   teamIDs(slot.Referee),
		ByeTeamIDs:   teamIDs(byes...),
		Status:       models.MatchScheduled,
	}
	if p := rc.r.Pool(slot.StageKey, slot.Pool); slot.Pool != "" && p != nil {
		want.PoolID = p.ID
	}

	if existing == nil {
		want.ID = rc.opts.NewID()
		want.CreatedAt = rc.now
		want.UpdatedAt = rc.now
		rc.changes.Create = append(rc.changes.Create, &want)
		slot.MatchID = want.ID
		return slot
	}

	if !sameAssignment(existing, &want) {
		updated := *existing
		updated.PoolID = want.PoolID
		updated.MatchKey = want.MatchKey
		updated.RoundBlock = want.RoundBlock
		updated.Court = want.Court
		updated.TeamAID = want.TeamAID
		updated.TeamBID = want.TeamBID
		updated.RefereeIDs = want.RefereeIDs
		updated.ByeTeamIDs = want.ByeTeamIDs
		updated.UpdatedAt = rc.now
		rc.changes.Update = append(rc.changes.Update, &updated)
	}
	slot.MatchID = existing.ID
	return slot
}

func sameAssignment(a, b *models.Match) bool {
	return a.PoolID == b.PoolID &&
		a.MatchKey == b.MatchKey &&
		a.RoundBlock == b.RoundBlock &&
		a.Court == b.Court &&
		models.Deref(a.TeamAID) == models.Deref(b.TeamAID) &&
		models.Deref(a.TeamBID) == models.Deref(b.TeamBID) &&
		slices.Equal(a.RefereeIDs, b.RefereeIDs) &&
		slices.Equal(a.ByeTeamIDs, b.ByeTeamIDs)
}

// bracket materializes a playoff bracket whole once every seed resolves. Until
// then its slots stay placeholders. When seeding stops resolving, a bracket
// nobody has started is withdrawn; otherwise its scheduled matches lose their
// seeded teams and only started or final matches keep theirs.
func (rc *reconciler) bracket(stageKey, label string) {
	var slots []models.Slot
	for _, s := range rc.st.Slots {
		if s.StageKey == stageKey && s.Bracket == label && s.Kind == models.SlotMatch {
			slots = append(slots, rc.resolveSlot(s))
		}
	}

	seeded := true
	for _, s := range slots {
		for _, side := range []*models.ParticipantRef{s.A, s.B} {
			if side != nil && side.Rank != nil && !side.IsTeam() {
				seeded = false
			}
		}
	}

	existing := make(map[string]*models.Match, len(slots))
	untouched := true
	for _, s := range slots {
		if m := rc.r.Match(s.ID); m != nil {
			existing[s.ID] = m
			if m.Status != models.MatchScheduled || m.Result != nil {
				untouched = false
			}
		}
	}

	switch {
	case !seeded && len(existing) > 0 && untouched:
		for _, s := range slots {
			if m := existing[s.ID]; m != nil {
				rc.changes.Delete = append(rc.changes.Delete, m)
			}
		}
		existing = map[string]*models.Match{}
	case seeded:
		rc.fillBracket(slots, existing)
	default:
		for _, s := range slots {
			if m := existing[s.ID]; m != nil && m.Status == models.MatchScheduled {
				rc.reseed(s, m)
			}
		}
	}

	for _, s := range slots {
		m := rc.current[s.ID]
		if m == nil {
			m = existing[s.ID]
		}
		if m != nil {
			pin(&s, m)
			if s.Resolved() {
				s.MatchID = m.ID
			}
		} else {
			// no match yet: outcome sides cannot have resolved either
			if s.A != nil && s.A.Outcome != nil {
				p := s.A.Pending()
				s.A = &p
			}
			if s.B != nil && s.B.Outcome != nil {
				p := s.B.Pending()
				s.B = &p
			}
		}
		rc.changes.Slots = append(rc.changes.Slots, s)
	}
}

func (rc *reconciler) fillBracket(slots []models.Slot, existing map[string]*models.Match) {
	ids := make(map[string]string, len(slots))
	for _, s := range slots {
		if m := existing[s.ID]; m != nil {
			ids[s.ID] = m.ID
		} else {
			ids[s.ID] = rc.opts.NewID()
		}
	}

	for _, s := range slots {
		node, _ := rc.st.Node(s.ID)
		m := existing[s.ID]
		if m == nil {
			created := &models.Match{
				ID:           ids[s.ID],
				TournamentID: rc.snap.Tournament.ID,
				SlotID:       s.ID,
				StageKey:     s.StageKey,
				Bracket:      s.Bracket,
				BracketRound: node.Round,
				BracketMatch: node.MatchNo,
				MatchKey:     s.Label,
				RoundBlock:   s.RoundBlock,
				Court:        s.Court,
				Status:       models.MatchScheduled,
				CreatedAt:    rc.now,
				UpdatedAt:    rc.now,
			}
			created.TeamAID, created.SourceA = rc.playoffSide(s.A, ids)
			created.TeamBID, created.SourceB = rc.playoffSide(s.B, ids)
			rc.changes.Create = append(rc.changes.Create, created)
			rc.current[s.ID] = created
			continue
		}

		if m.Status == models.MatchScheduled {
			rc.reseed(s, m)
		}
	}
}

// reseed points the seed sides of a scheduled match at the teams its slot
// resolves to now. An unresolved seed clears the side.
func (rc *reconciler) reseed(s models.Slot, m *models.Match) {
	updated := *m
	changed := false
	for _, side := range []models.Side{models.SideA, models.SideB} {
		ref := s.A
		if side == models.SideB {
			ref = s.B
		}
		if ref == nil || ref.Rank == nil {
			continue
		}
		if models.Deref(updated.Team(side)) != ref.TeamID {
			updated.SetTeam(side, models.StringPtr(ref.TeamID))
			changed = true
		}
	}
	if updated.RoundBlock != s.RoundBlock || updated.Court != s.Court || updated.MatchKey != s.Label {
		updated.RoundBlock, updated.Court, updated.MatchKey = s.RoundBlock, s.Court, s.Label
		changed = true
	}
	if changed {
		updated.UpdatedAt = rc.now
		rc.changes.Update = append(rc.changes.Update, &updated)
		rc.current[s.ID] = &updated
	}
}

func (rc *reconciler) playoffSide(ref *models.ParticipantRef, ids map[string]string) (*string, *models.MatchSource) {
	if ref == nil {
		return nil, nil
	}
	if ref.Outcome != nil {
		return nil, &models.MatchSource{MatchID: ids[ref.Outcome.SlotID], Outcome: ref.Outcome.Outcome}
	}
	if ref.IsTeam() {
		return models.StringPtr(ref.TeamID), nil
	}
	return nil, nil
}
