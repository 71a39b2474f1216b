package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"gps-canon-service/internal/ingest"
	"gps-canon-service/internal/middleware"
	"gps-canon-service/internal/store"
)

func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.store.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Reprocess перегоняет сохранённые сырые данные через конвейер заново:
// тот же снапшот профиля, актуальный ростер, ручные привязки сверху.
// Замена canonical атомарна, при любой ошибке отчёт остаётся прежним.
func (h *Handlers) Reprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := h.store.Report(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	res, err := h.reprocess(r, rep)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if err := h.store.ReplaceCanonical(r.Context(), id, res.Canonical, res.Meta); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.log.Info().
		Str("rid", middleware.GetRequestID(r)).
		Str("report", id).
		Msg("reprocess")

	rep.Canonical = res.Canonical
	rep.ImportMeta = res.Meta
	writeJSON(w, http.StatusOK, rep)
}

type setPlayerRequest struct {
	PlayerID string `json:"playerId"`
}

// SetRowPlayer — ручная привязка строки отчёта к игроку. Привязка
// переживает переобработку: она хранится отдельно от canonical и
// накладывается поверх автоматики при каждом прогоне.
func (h *Handlers) SetRowPlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rowIndex, err := strconv.Atoi(chi.URLParam(r, "rowIndex"))
	if err != nil || rowIndex < 0 {
		writeError(w, http.StatusBadRequest, "rowIndex must be a non-negative integer")
		return
	}
	var req setPlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "playerId required")
		return
	}

	rep, err := h.store.Report(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if err := h.store.SetOverride(r.Context(), id, rowIndex, req.PlayerID); err != nil {
		h.storeError(w, r, err)
		return
	}

	res, err := h.reprocess(r, rep)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if err := h.store.ReplaceCanonical(r.Context(), id, res.Canonical, res.Meta); err != nil {
		h.storeError(w, r, err)
		return
	}

	rep.Canonical = res.Canonical
	rep.ImportMeta = res.Meta
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handlers) reprocess(r *http.Request, rep *store.Report) (ingest.Result, error) {
	p, err := h.store.Profile(r.Context(), rep.ProfileID)
	if err != nil {
		return ingest.Result{}, err
	}
	roster, err := h.store.Roster(r.Context(), p.ClubID)
	if err != nil {
		return ingest.Result{}, err
	}
	overrides, err := h.store.Overrides(r.Context(), rep.ID)
	if err != nil {
		return ingest.Result{}, err
	}
	return h.pipe.Process(ingest.Input{
		Raw:       rep.RawData,
		Snapshot:  rep.Snapshot,
		Roster:    roster,
		Overrides: overrides,
	}), nil
}
