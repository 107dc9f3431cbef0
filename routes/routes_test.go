package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/broadcast"
	"github.com/Dosada05/volley-tournament/formats"
	"github.com/Dosada05/volley-tournament/handlers"
	"github.com/Dosada05/volley-tournament/metrics"
	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
	"github.com/Dosada05/volley-tournament/services"
)

type api struct {
	server *httptest.Server
	hub    *broadcast.Hub
}

func newAPI(t *testing.T) *api {
	t.Helper()
	catalog, err := formats.LoadEmbedded()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := broadcast.NewHub()
	go hub.Run(ctx)

	registry := prometheus.NewRegistry()
	engine := services.NewEngine(services.Deps{
		Store:    repositories.NewMemoryStore(),
		Catalog:  catalog,
		Notifier: hub,
		Metrics:  metrics.NewMetrics(registry),
	})
	tournaments := services.NewTournamentService(engine)

	router := chi.NewRouter()
	SetupRoutes(router, zerolog.Nop(), []string{"*"}, Handlers{
		Tournaments: handlers.NewTournamentHandler(tournaments, services.NewPoolService(engine)),
		Schedule:    handlers.NewScheduleHandler(services.NewScheduleService(engine)),
		Matches:     handlers.NewMatchHandler(services.NewMatchService(engine)),
		Standings:   handlers.NewStandingsHandler(services.NewStandingsService(engine)),
		WebSocket:   handlers.NewWebSocketHandler(hub, tournaments, []string{"*"}),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &api{server: server, hub: hub}
}

func (a *api) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func teamNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "Team " + string(rune('A'+i))
	}
	return out
}

func (a *api) createTournament(t *testing.T) string {
	t.Helper()
	var created struct {
		Tournament models.Tournament `json:"tournament"`
	}
	status := a.do(t, http.MethodPost, "/tournaments", services.CreateTournamentInput{
		Name:       "City Open",
		FormatID:   "15-teams-5x3-ops",
		Courts:     []string{"1", "2", "3", "4", "5"},
		Teams:      teamNames(15),
		AutoAssign: true,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.Tournament.ID)
	return created.Tournament.ID
}

func (a *api) matches(t *testing.T, tournamentID string) []models.Match {
	t.Helper()
	var out struct {
		Matches []models.Match `json:"matches"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/tournaments/"+tournamentID+"/matches", nil, &out))
	return out.Matches
}

func TestTournamentFlowOverHTTP(t *testing.T) {
	a := newAPI(t)
	id := a.createTournament(t)

	matches := a.matches(t, id)
	require.Len(t, matches, 15)
	first := matches[0]

	var sync struct {
		Sync services.SyncResult `json:"sync"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/tournaments/"+id+"/sync", nil, &sync))
	assert.False(t, sync.Sync.Changed)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/matches/"+first.ID+"/start", nil, nil))
	sets := map[string]any{"sets": []models.SetScore{{A: 25, B: 17}, {A: 25, B: 19}}}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/matches/"+first.ID+"/sets", sets, nil))
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/matches/"+first.ID+"/end", nil, nil))

	var finalized struct {
		Change services.MatchChange `json:"change"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/matches/"+first.ID+"/finalize", nil, &finalized))
	assert.Equal(t, models.MatchFinal, finalized.Change.Match.Status)
	assert.Equal(t, models.Deref(first.TeamAID), finalized.Change.Match.Result.WinnerID)

	var standings struct {
		Standings services.Standings `json:"standings"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/tournaments/"+id+"/standings?scope=pool/A", nil, &standings))
	assert.False(t, standings.Standings.Complete)
	assert.Len(t, standings.Standings.Entries, 3)

	var plan struct {
		Plan models.SchedulePlan `json:"plan"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/tournaments/"+id+"/plan", nil, &plan))
	assert.NotEmpty(t, plan.Plan.Hash)
	assert.NotEmpty(t, plan.Plan.Slots)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/matches/"+first.ID+"/unfinalize", nil, nil))
}

func TestErrorStatusMapping(t *testing.T) {
	a := newAPI(t)
	id := a.createTournament(t)
	match := a.matches(t, id)[1]

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown tournament", http.MethodGet, "/tournaments/nope", nil, http.StatusNotFound},
		{"unknown match", http.MethodPost, "/matches/nope/start", nil, http.StatusNotFound},
		{"finalize before end", http.MethodPost, "/matches/" + match.ID + "/finalize", nil, http.StatusConflict},
		{"end before start", http.MethodPost, "/matches/" + match.ID + "/end", nil, http.StatusConflict},
		{"negative set", http.MethodPut, "/matches/" + match.ID + "/sets", map[string]any{"sets": []models.SetScore{{A: -1, B: 2}}}, http.StatusUnprocessableEntity},
		{"unknown format", http.MethodPost, "/tournaments", map[string]any{"name": "x", "format_id": "nope"}, http.StatusBadRequest},
		{"unknown body field", http.MethodPost, "/tournaments", map[string]any{"title": "x"}, http.StatusBadRequest},
		{"missing scope", http.MethodGet, "/tournaments/" + id + "/standings", nil, http.StatusBadRequest},
		{"unknown scope", http.MethodGet, "/tournaments/" + id + "/standings?scope=pool/Z", nil, http.StatusUnprocessableEntity},
		{"unknown pool", http.MethodPut, "/pools/nope/teams", map[string]any{"team_ids": []string{}}, http.StatusNotFound},
		{"bad preview", http.MethodGet, "/previews/round-robin?teams=a,b", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			status := a.do(t, tt.method, tt.path, tt.body, &body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}

	sets := map[string]any{"sets": []models.SetScore{{A: 25, B: 25}, {A: 25, B: 20}}}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/matches/"+match.ID+"/sets", sets, nil))
	status := a.do(t, http.MethodPost, "/matches/"+match.ID+"/finalize", map[string]bool{"override": true}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestPreviewsAndFormats(t *testing.T) {
	a := newAPI(t)

	var bracket struct {
		Nodes []map[string]any `json:"nodes"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/previews/bracket?shape=singleElimination&size=8", nil, &bracket))
	assert.Len(t, bracket.Nodes, 7)

	var rr struct {
		Matches []map[string]any `json:"matches"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/previews/round-robin?teams=a,b,c", nil, &rr))
	assert.Len(t, rr.Matches, 3)

	var list struct {
		Formats []models.Format `json:"formats"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/formats", nil, &list))
	assert.NotEmpty(t, list.Formats)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.createTournament(t)

	resp, err := a.server.Client().Get(a.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "volley_schedule_sync_duration_ms")
	assert.Contains(t, string(body), "volley_materialized_matches_total")
}

func TestWebSocketReceivesEvents(t *testing.T) {
	a := newAPI(t)
	id := a.createTournament(t)
	match := a.matches(t, id)[0]

	url := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/ws/tournaments/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return a.hub.ClientCount(broadcast.RoomID(id)) == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/matches/"+match.ID+"/start", nil, nil))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event broadcast.Event
	require.NoError(t, json.Unmarshal(bytes.SplitN(data, []byte("\n"), 2)[0], &event))
	assert.Equal(t, broadcast.SignalMatchStatusChanged, event.Signal)
	assert.Equal(t, match.ID, event.MatchID)

	resp, err := a.server.Client().Get(a.server.URL + "/ws/tournaments/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
