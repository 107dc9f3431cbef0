package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchEnded     MatchStatus = "ended"
	MatchFinal     MatchStatus = "final"
)

type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Outcome selects which finisher of a source match feeds a participant position.
type Outcome string

const (
	OutcomeWinner Outcome = "winner"
	OutcomeLoser  Outcome = "loser"
)

// MatchSource describes a playoff participant that is still "the winner/loser of match X".
type MatchSource struct {
	MatchID string  `json:"match_id"`
	Outcome Outcome `json:"outcome"`
}

type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Result is set once a match is final.
type Result struct {
	WinnerID string     `json:"winner_id"`
	LoserID  string     `json:"loser_id"`
	SetsA    int        `json:"sets_a"`
	SetsB    int        `json:"sets_b"`
	Sets     []SetScore `json:"sets"`
	PointsA  int        `json:"points_a"`
	PointsB  int        `json:"points_b"`
}

type Match struct {
	ID           string `json:"id" db:"id"`
	TournamentID string `json:"tournament_id" db:"tournament_id"`
	SlotID       string `json:"slot_id" db:"slot_id"`
	StageKey     string `json:"stage_key" db:"stage_key"`

	// pool stages
	PoolID string `json:"pool_id,omitempty" db:"pool_id"`

	// playoff stages
	Bracket      string `json:"bracket,omitempty" db:"bracket"`
	BracketRound int    `json:"bracket_round,omitempty" db:"bracket_round"`
	BracketMatch int    `json:"bracket_match,omitempty" db:"bracket_match"`
	MatchKey     string `json:"match_key,omitempty" db:"match_key"`

	RoundBlock int    `json:"round_block" db:"round_block"`
	Court      string `json:"court" db:"court"`

	TeamAID *string      `json:"team_a_id,omitempty" db:"team_a_id"`
	TeamBID *string      `json:"team_b_id,omitempty" db:"team_b_id"`
	SourceA *MatchSource `json:"source_a,omitempty" db:"source_a"`
	SourceB *MatchSource `json:"source_b,omitempty" db:"source_b"`

	RefereeIDs []string `json:"referee_ids,omitempty" db:"referee_ids"`
	ByeTeamIDs []string `json:"bye_team_ids,omitempty" db:"bye_team_ids"`

	Status      MatchStatus `json:"status" db:"status"`
	StartedAt   *time.Time  `json:"started_at,omitempty" db:"started_at"`
	EndedAt     *time.Time  `json:"ended_at,omitempty" db:"ended_at"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty" db:"finalized_at"`
	Result      *Result     `json:"result,omitempty" db:"result"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (m *Match) Team(side Side) *string {
	if side == SideA {
		return m.TeamAID
	}
	return m.TeamBID
}

func (m *Match) SetTeam(side Side, teamID *string) {
	if side == SideA {
		m.TeamAID = teamID
		return
	}
	m.TeamBID = teamID
}

func (m *Match) Source(side Side) *MatchSource {
	if side == SideA {
		return m.SourceA
	}
	return m.SourceB
}

func (m *Match) HasBothTeams() bool {
	return m.TeamAID != nil && *m.TeamAID != "" && m.TeamBID != nil && *m.TeamBID != ""
}

func (m *Match) IsFinal() bool {
	return m.Status == MatchFinal && m.Result != nil
}

// Involves reports whether the team plays in this match.
func (m *Match) Involves(teamID string) bool {
	return (m.TeamAID != nil && *m.TeamAID == teamID) || (m.TeamBID != nil && *m.TeamBID == teamID)
}

// OutcomeTeam returns the winner or loser of a final match, or "" if not final.
func (m *Match) OutcomeTeam(outcome Outcome) string {
	if !m.IsFinal() {
		return ""
	}
	if outcome == OutcomeLoser {
		return m.Result.LoserID
	}
	return m.Result.WinnerID
}

// StringPtr returns a pointer to a copy of s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
