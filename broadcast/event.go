package broadcast

import (
	"context"
	"time"
)

type Signal string

const (
	SignalPoolsChanged       Signal = "POOLS_CHANGED"
	SignalMatchesGenerated   Signal = "MATCHES_GENERATED"
	SignalPlanChanged        Signal = "SCHEDULE_PLAN_CHANGED"
	SignalMatchStatusChanged Signal = "MATCH_STATUS_CHANGED"
	SignalMatchFinalized     Signal = "MATCH_FINALIZED"
	SignalMatchUnfinalized   Signal = "MATCH_UNFINALIZED"
	SignalScoreboardReset    Signal = "SCOREBOARD_RESET"
)

// Event is one change signal of a tournament.
type Event struct {
	Signal       Signal    `json:"type"`
	TournamentID string    `json:"tournament_id"`
	MatchID      string    `json:"match_id,omitempty"`
	ScoreboardID string    `json:"scoreboard_id,omitempty"`
	SlotIDs      []string  `json:"slot_ids,omitempty"`
	Payload      any       `json:"payload,omitempty"`
	At           time.Time `json:"at"`
}

// Notifier delivers events. Implementations must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type NotifierFunc func(ctx context.Context, e Event)

func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Nop drops every event.
var Nop Notifier = NotifierFunc(func(context.Context, Event) {})

// Fanout delivers each event to every notifier in order.
func Fanout(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, e Event) {
		for _, n := range notifiers {
			n.Notify(ctx, e)
		}
	})
}
