package broadcast

import (
	"context"
	"sync"
)

type scopeKey struct{}

// Scope lives for one mutating operation. It buffers the operation's events
// until the caller flushes them after commit, and remembers which match each
// scoreboard touched by the operation belongs to.
type Scope struct {
	mu                sync.Mutex
	matchByScoreboard map[string]string
	pending           []Event
}

func NewScope() *Scope {
	return &Scope{matchByScoreboard: make(map[string]string)}
}

// WithScope attaches a fresh scope to ctx.
func WithScope(ctx context.Context) (context.Context, *Scope) {
	s := NewScope()
	return context.WithValue(ctx, scopeKey{}, s), s
}

// ScopeFrom returns the scope of ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

func (s *Scope) Remember(scoreboardID, matchID string) {
	if s == nil || scoreboardID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchByScoreboard[scoreboardID] = matchID
}

func (s *Scope) add(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, e)
}

// Pending returns a copy of the buffered events.
func (s *Scope) Pending() []Event {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.pending...)
}

// Flush delivers the buffered events in emit order and clears the buffer.
// Scoreboard events without a match id get the one remembered for their scoreboard.
func (s *Scope) Flush(ctx context.Context, n Notifier) {
	if s == nil {
		return
	}
	s.mu.Lock()
	events := s.pending
	s.pending = nil
	for i := range events {
		if events[i].MatchID == "" && events[i].ScoreboardID != "" {
			events[i].MatchID = s.matchByScoreboard[events[i].ScoreboardID]
		}
	}
	s.mu.Unlock()

	for _, e := range events {
		n.Notify(ctx, e)
	}
}

// Discard drops the buffered events of a failed operation.
func (s *Scope) Discard() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Reset clears both the buffer and the scoreboard cache.
func (s *Scope) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.matchByScoreboard = make(map[string]string)
}

// Emit buffers e in the scope of ctx, or delivers it right away when ctx has none.
func Emit(ctx context.Context, n Notifier, e Event) {
	if s := ScopeFrom(ctx); s != nil {
		s.add(e)
		return
	}
	n.Notify(ctx, e)
}
