package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Dosada05/volley-tournament/handlers"
	"github.com/Dosada05/volley-tournament/middleware"
)

type Handlers struct {
	Tournaments *handlers.TournamentHandler
	Schedule    *handlers.ScheduleHandler
	Matches     *handlers.MatchHandler
	Standings   *handlers.StandingsHandler
	WebSocket   *handlers.WebSocketHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func SetupRoutes(router chi.Router, logger zerolog.Logger, allowedOrigins []string, h Handlers) {
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if h.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	router.Get("/formats", h.Tournaments.ListFormatsHandler)

	router.Route("/previews", func(r chi.Router) {
		r.Get("/bracket", h.Schedule.PreviewBracketHandler)
		r.Get("/round-robin", h.Schedule.PreviewRoundRobinHandler)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", h.Tournaments.CreateHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournaments.GetByIDHandler)
			r.Get("/teams", h.Tournaments.ListTeamsHandler)
			r.Post("/teams", h.Tournaments.AddTeamHandler)
			r.Get("/pools", h.Tournaments.ListPoolsHandler)

			r.Post("/sync", h.Schedule.SyncHandler)
			r.Get("/plan", h.Schedule.GetPlanHandler)
			r.Get("/matches", h.Schedule.ListMatchesHandler)

			r.Get("/standings", h.Standings.GetHandler)
			r.Put("/overrides", h.Standings.SetOverrideHandler)
			r.Delete("/overrides", h.Standings.ClearOverrideHandler)
		})
	})

	router.Put("/pools/{poolID}/teams", h.Tournaments.AssignTeamsHandler)

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", h.Matches.GetHandler)
		r.Get("/scoreboard", h.Matches.GetScoreboardHandler)
		r.Put("/sets", h.Matches.RecordSetsHandler)
		r.Post("/start", h.Matches.StartHandler)
		r.Post("/end", h.Matches.EndHandler)
		r.Post("/finalize", h.Matches.FinalizeHandler)
		r.Post("/unfinalize", h.Matches.UnfinalizeHandler)
	})

	if h.WebSocket != nil {
		router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
	}
}
