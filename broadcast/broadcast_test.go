package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitWithoutScopeDeliversImmediately(t *testing.T) {
	rec := NewRecorder()
	Emit(context.Background(), rec, Event{Signal: SignalPoolsChanged, TournamentID: "t1"})
	assert.Equal(t, []Signal{SignalPoolsChanged}, rec.Signals())
}

func TestScopeBuffersUntilFlush(t *testing.T) {
	rec := NewRecorder()
	ctx, scope := WithScope(context.Background())
	require.Same(t, scope, ScopeFrom(ctx))

	Emit(ctx, rec, Event{Signal: SignalMatchesGenerated, TournamentID: "t1"})
	Emit(ctx, rec, Event{Signal: SignalPlanChanged, TournamentID: "t1"})
	assert.Empty(t, rec.Events())
	assert.Len(t, scope.Pending(), 2)

	scope.Flush(ctx, rec)
	assert.Equal(t, []Signal{SignalMatchesGenerated, SignalPlanChanged}, rec.Signals())
	assert.Empty(t, scope.Pending())
}

func TestScopeDiscard(t *testing.T) {
	rec := NewRecorder()
	ctx, scope := WithScope(context.Background())
	Emit(ctx, rec, Event{Signal: SignalMatchFinalized, TournamentID: "t1"})
	scope.Discard()
	scope.Flush(ctx, rec)
	assert.Empty(t, rec.Events())
}

func TestScopeFillsScoreboardMatch(t *testing.T) {
	rec := NewRecorder()
	ctx, scope := WithScope(context.Background())
	scope.Remember("sb-1", "m-1")
	Emit(ctx, rec, Event{Signal: SignalScoreboardReset, TournamentID: "t1", ScoreboardID: "sb-1"})
	scope.Flush(ctx, rec)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "m-1", events[0].MatchID)

	scope.Reset()
	Emit(ctx, rec, Event{Signal: SignalScoreboardReset, TournamentID: "t1", ScoreboardID: "sb-1"})
	scope.Flush(ctx, rec)
	events = rec.Events()
	require.Len(t, events, 2)
	assert.Empty(t, events[1].MatchID, "reset forgets remembered scoreboards")
}

func TestNilScopeIsSafe(t *testing.T) {
	var scope *Scope
	assert.Nil(t, ScopeFrom(context.Background()))
	scope.Remember("sb", "m")
	scope.Flush(context.Background(), Nop)
	scope.Discard()
	scope.Reset()
	assert.Nil(t, scope.Pending())
}

func TestHubDeliversToTournamentRoom(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	inRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomID("t1")}
	otherRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomID("t2")}
	hub.Register <- inRoom
	hub.Register <- otherRoom
	require.Eventually(t, func() bool {
		return hub.ClientCount(RoomID("t1")) == 1 && hub.ClientCount(RoomID("t2")) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Notify(context.Background(), Event{Signal: SignalMatchFinalized, TournamentID: "t1", MatchID: "m1"})

	select {
	case msg := <-inRoom.Send:
		var got Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, SignalMatchFinalized, got.Signal)
		assert.Equal(t, "m1", got.MatchID)
	case <-time.After(time.Second):
		t.Fatal("room client did not receive the event")
	}
	assert.Empty(t, otherRoom.Send)

	cancel()
	<-done
	assert.True(t, inRoom.IsClosed)
	assert.Equal(t, 0, hub.ClientCount(RoomID("t1")))
}

func TestFanout(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	Fanout(a, b).Notify(context.Background(), Event{Signal: SignalPoolsChanged})
	assert.Equal(t, 1, a.Count(SignalPoolsChanged))
	assert.Equal(t, 1, b.Count(SignalPoolsChanged))
}
