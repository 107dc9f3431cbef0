package models

import (
	"fmt"
	"time"
)

type RefKind string

const (
	RefRank    RefKind = "rank"
	RefTeam    RefKind = "team"
	RefOutcome RefKind = "outcome"
)

// RankBasis tells the resolver how a rank is read.
// Roster ranks are positions in a pool's team list, standings ranks come from finalized results.
type RankBasis string

const (
	BasisRoster    RankBasis = "roster"
	BasisStandings RankBasis = "standings"
)

// RankRef is "the team ranked Rank in Pool of StageKey". An empty Pool means the
// cumulative ranking of the stage.
type RankRef struct {
	StageKey string    `json:"stage"`
	Pool     string    `json:"pool,omitempty"`
	Rank     int       `json:"rank"`
	Basis    RankBasis `json:"basis"`
}

func (r RankRef) Scope() string {
	if r.Pool == "" {
		return r.StageKey
	}
	return r.StageKey + "/" + r.Pool
}

func (r RankRef) Label() string {
	if r.Pool == "" {
		return fmt.Sprintf("#%d overall", r.Rank)
	}
	if r.Basis == BasisRoster {
		return fmt.Sprintf("%s team %d", r.Pool, r.Rank)
	}
	return fmt.Sprintf("%s #%d", r.Pool, r.Rank)
}

// OutcomeRef is "the winner (or loser) of the match in slot SlotID".
type OutcomeRef struct {
	SlotID  string  `json:"slot"`
	Outcome Outcome `json:"outcome"`
}

func (o OutcomeRef) Label() string {
	if o.Outcome == OutcomeLoser {
		return "L " + o.SlotID
	}
	return "W " + o.SlotID
}

// ParticipantRef is one side of a slot, a referee or a bye. Pending refs carry
// Rank or Outcome; resolved refs carry TeamID and keep what they were resolved from.
type ParticipantRef struct {
	Kind    RefKind     `json:"kind"`
	Rank    *RankRef    `json:"rank,omitempty"`
	Outcome *OutcomeRef `json:"outcome,omitempty"`
	TeamID  string      `json:"team,omitempty"`
}

func RankParticipant(r RankRef) ParticipantRef {
	return ParticipantRef{Kind: RefRank, Rank: &r}
}

func OutcomeParticipant(slotID string, outcome Outcome) ParticipantRef {
	return ParticipantRef{Kind: RefOutcome, Outcome: &OutcomeRef{SlotID: slotID, Outcome: outcome}}
}

// Resolve returns a team reference that remembers p as its origin.
func (p ParticipantRef) Resolve(teamID string) ParticipantRef {
	return ParticipantRef{Kind: RefTeam, Rank: p.Rank, Outcome: p.Outcome, TeamID: teamID}
}

// Pending strips a resolved reference back to its placeholder.
func (p ParticipantRef) Pending() ParticipantRef {
	switch {
	case p.Rank != nil:
		return ParticipantRef{Kind: RefRank, Rank: p.Rank}
	case p.Outcome != nil:
		return ParticipantRef{Kind: RefOutcome, Outcome: p.Outcome}
	default:
		return p
	}
}

func (p ParticipantRef) IsTeam() bool {
	return p.Kind == RefTeam && p.TeamID != ""
}

// Label is the placeholder text for display, independent of resolution.
func (p ParticipantRef) Label() string {
	switch {
	case p.Rank != nil:
		return p.Rank.Label()
	case p.Outcome != nil:
		return p.Outcome.Label()
	default:
		return p.TeamID
	}
}

type SlotKind string

const (
	SlotMatch SlotKind = "match"
	SlotLunch SlotKind = "lunch"
)

// Slot is one scheduled unit of play (or a break). ID is derived from the stage
// structure so it survives regeneration of matches.
type Slot struct {
	ID         string           `json:"id"`
	StageKey   string           `json:"stage"`
	Kind       SlotKind         `json:"kind"`
	RoundBlock int              `json:"round_block"`
	Court      string           `json:"court,omitempty"`
	Pool       string           `json:"pool,omitempty"`
	Bracket    string           `json:"bracket,omitempty"`
	Label      string           `json:"label,omitempty"`
	A          *ParticipantRef  `json:"a,omitempty"`
	B          *ParticipantRef  `json:"b,omitempty"`
	Referee    *ParticipantRef  `json:"referee,omitempty"`
	Byes       []ParticipantRef `json:"byes,omitempty"`
	MatchID    string           `json:"match_id,omitempty"`
}

// Resolved reports whether both playing sides are team references.
func (s *Slot) Resolved() bool {
	return s.Kind == SlotMatch && s.A != nil && s.B != nil && s.A.IsTeam() && s.B.IsTeam()
}

// SchedulePlan is the stored canonical form of a tournament's slot set.
type SchedulePlan struct {
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	Hash         string    `json:"hash" db:"hash"`
	Document     []byte    `json:"-" db:"document"`
	Slots        []Slot    `json:"slots" db:"-"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
