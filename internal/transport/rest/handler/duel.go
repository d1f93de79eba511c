package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mathduel/internal/engine"
	"mathduel/internal/service"
	"mathduel/internal/transport/rest/middleware"
)

// DuelHandler handles duel room endpoints
type DuelHandler struct {
	duelSvc *service.DuelService
}

// NewDuelHandler creates a new duel handler
func NewDuelHandler(duelSvc *service.DuelService) *DuelHandler {
	return &DuelHandler{duelSvc: duelSvc}
}

// CreateDuelRequest is the request body for creating a duel room
type CreateDuelRequest struct {
	TimeLimitSeconds int `json:"timeLimitSeconds"`
	RoundLimit       int `json:"roundLimit"`
}

// Create handles POST /v1/duels
func (h *DuelHandler) Create(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.GetPlayerID(r.Context())
	if playerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateDuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomID, err := h.duelSvc.CreateDuel(playerID, req.TimeLimitSeconds, req.RoundLimit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"roomId": roomID})
}

// Join handles POST /v1/duels/{roomId}/join
func (h *DuelHandler) Join(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	playerID := middleware.GetPlayerID(r.Context())

	if err := h.duelSvc.JoinDuel(roomID, playerID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// Get handles GET /v1/duels/{roomId}
func (h *DuelHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	snap, err := h.duelSvc.Lookup(roomID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Leaderboard handles GET /v1/leaderboard
func (h *DuelHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top := 20
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		if n, err := strconv.Atoi(topStr); err == nil && n > 0 {
			top = n
		}
	}

	entries, err := h.duelSvc.Leaderboard(r.Context(), top)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// History handles GET /v1/players/{playerId}/history
func (h *DuelHandler) History(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := h.duelSvc.History(r.Context(), playerID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"duels": results})
}

// statusFor maps engine errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidConfig), errors.Is(err, engine.ErrSelfJoin):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrAlreadyStarted),
		errors.Is(err, engine.ErrFull),
		errors.Is(err, engine.ErrNotActive),
		errors.Is(err, engine.ErrUnknownPlayer),
		errors.Is(err, engine.ErrDuplicateSubmission):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
