package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) GetScoreboardHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sb, err := h.matchService.GetScoreboard(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"scoreboard": sb})
}

type recordSetsInput struct {
	Sets []models.SetScore `json:"sets"`
}

// RecordSetsHandler handles PUT /matches/{matchID}/sets
func (h *MatchHandler) RecordSetsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input recordSetsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Sets == nil {
		input.Sets = []models.SetScore{}
	}

	sb, err := h.matchService.RecordSets(r.Context(), id, input.Sets)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"scoreboard": sb})
}

func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.matchService.StartMatch)
}

func (h *MatchHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.matchService.EndMatch)
}

func (h *MatchHandler) UnfinalizeHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.matchService.UnfinalizeMatch)
}

type finalizeInput struct {
	Override bool `json:"override"`
}

// FinalizeHandler handles POST /matches/{matchID}/finalize. The body is optional.
func (h *MatchHandler) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input finalizeInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	change, err := h.matchService.FinalizeMatch(r.Context(), id, services.FinalizeOptions{Override: input.Override})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"change": change})
}

func (h *MatchHandler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, matchID string) (*services.MatchChange, error)) {
	id, err := paramFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	change, err := op(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"change": change})
}
