package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/volley-tournament/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(ss services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: ss}
}

// SyncHandler handles POST /tournaments/{tournamentID}/sync
func (h *ScheduleHandler) SyncHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.scheduleService.SyncSchedulePlan(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"sync": result})
}

// GetPlanHandler handles GET /tournaments/{tournamentID}/plan
func (h *ScheduleHandler) GetPlanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	plan, err := h.scheduleService.GetSchedulePlan(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"plan": plan})
}

func (h *ScheduleHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := paramFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.scheduleService.ListMatches(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

// PreviewBracketHandler handles GET /previews/bracket?shape=&size=&label=
func (h *ScheduleHandler) PreviewBracketHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	shape := query.Get("shape")
	if shape == "" {
		badRequestResponse(w, r, errors.New("shape query parameter is required"))
		return
	}
	size := 0
	if sizeStr := query.Get("size"); sizeStr != "" {
		n, err := strconv.Atoi(sizeStr)
		if err != nil || n < 0 {
			badRequestResponse(w, r, errors.New("invalid size query parameter"))
			return
		}
		size = n
	}
	label := query.Get("label")
	if label == "" {
		label = "preview"
	}

	nodes, err := h.scheduleService.PreviewBracket(label, shape, size)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"nodes": nodes})
}

// PreviewRoundRobinHandler handles GET /previews/round-robin?teams=a,b,c
func (h *ScheduleHandler) PreviewRoundRobinHandler(w http.ResponseWriter, r *http.Request) {
	teamsParam := r.URL.Query().Get("teams")
	if teamsParam == "" {
		badRequestResponse(w, r, errors.New("teams query parameter is required"))
		return
	}
	teams := strings.Split(teamsParam, ",")

	matches, err := h.scheduleService.PreviewRoundRobin(len(teams), teams)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}
