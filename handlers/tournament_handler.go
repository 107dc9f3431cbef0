package handlers

import (
	"net/http"

	"github.com/Dosada05/volley-tournament/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	poolService       services.PoolService
}

func NewTournamentHandler(ts services.TournamentService, ps services.PoolService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		poolService:       ps,
	}
}

// CreateHandler handles POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// GetByIDHandler handles GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

type addTeamInput struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// AddTeamHandler handles POST /tournaments/{tournamentID}/teams
func (h *TournamentHandler) AddTeamHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input addTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.tournamentService.AddTeam(r.Context(), id, input.Name, input.ShortName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"team": team})
}

func (h *TournamentHandler) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.tournamentService.ListTeams(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"teams": teams})
}

func (h *TournamentHandler) ListPoolsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pools, err := h.poolService.ListPools(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"pools": pools})
}

type assignTeamsInput struct {
	TeamIDs []string `json:"team_ids"`
}

// AssignTeamsHandler handles PUT /pools/{poolID}/teams
func (h *TournamentHandler) AssignTeamsHandler(w http.ResponseWriter, r *http.Request) {
	poolID, err := paramFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input assignTeamsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamIDs == nil {
		input.TeamIDs = []string{}
	}

	result, err := h.poolService.AssignTeams(r.Context(), poolID, input.TeamIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"sync": result})
}

func (h *TournamentHandler) ListFormatsHandler(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, jsonResponse{"formats": h.tournamentService.ListFormats()})
}
