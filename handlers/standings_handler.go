package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/volley-tournament/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// scopes look like "pool/A", so they travel in the query string
func scopeFromQuery(r *http.Request) (string, error) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		return "", errors.New("scope query parameter is required")
	}
	return scope, nil
}

// GetHandler handles GET /tournaments/{tournamentID}/standings?scope=
func (h *StandingsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	scope, err := scopeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.GetStandings(r.Context(), id, scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"standings": standings})
}

type overrideInput struct {
	TeamIDs []string `json:"team_ids"`
}

// SetOverrideHandler handles PUT /tournaments/{tournamentID}/overrides?scope=
func (h *StandingsHandler) SetOverrideHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	scope, err := scopeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input overrideInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.standingsService.SetOverride(r.Context(), id, scope, input.TeamIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"sync": result})
}

// ClearOverrideHandler handles DELETE /tournaments/{tournamentID}/overrides?scope=
func (h *StandingsHandler) ClearOverrideHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	scope, err := scopeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.standingsService.ClearOverride(r.Context(), id, scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"sync": result})
}
