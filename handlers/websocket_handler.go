package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Dosada05/volley-tournament/broadcast"
	"github.com/Dosada05/volley-tournament/services"
)

type WebSocketHandler struct {
	hub               *broadcast.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
}

// NewWebSocketHandler accepts connections whose Origin is listed in
// allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(hub *broadcast.Hub, ts services.TournamentService, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeWs subscribes the connection to the events of one tournament:
// /ws/tournaments/{tournamentID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.tournamentService.GetTournament(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	logger := log.Ctx(r.Context()).With().Str("tournament_id", id).Logger()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		logger.Warn().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	client := &broadcast.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: broadcast.RoomID(id),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	logger.Debug().Str("room", client.Room).Msg("websocket client connected")
}
