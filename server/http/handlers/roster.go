package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gps-canon-service/internal/store"
)

type upsertPlayerRequest struct {
	PlayerID string `json:"playerId"`
	ClubID   string `json:"clubId"`
	FullName string `json:"fullName"`
}

// UpsertPlayer регистрирует игрока в ростере клуба. Без ростера
// конвейер работает, но строки остаются без привязки.
func (h *Handlers) UpsertPlayer(w http.ResponseWriter, r *http.Request) {
	var req upsertPlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ClubID) == "" || strings.TrimSpace(req.FullName) == "" {
		writeError(w, http.StatusBadRequest, "clubId and fullName required")
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}
	p := store.Player{PlayerID: req.PlayerID, ClubID: req.ClubID, FullName: req.FullName}
	if err := h.store.UpsertPlayer(r.Context(), p); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handlers) ListRoster(w http.ResponseWriter, r *http.Request) {
	clubID := r.URL.Query().Get("clubId")
	if clubID == "" {
		writeError(w, http.StatusBadRequest, "clubId query parameter required")
		return
	}
	roster, err := h.store.Roster(r.Context(), clubID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": roster})
}
