package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gps-canon-service/internal/profile"
)

type createProfileRequest struct {
	ClubID    string           `json:"clubId"`
	Name      string           `json:"name"`
	GpsSystem string           `json:"gpsSystem"`
	Columns   []profile.Column `json:"columns"`
}

func (h *Handlers) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := profile.New(h.reg, req.ClubID, req.Name, req.GpsSystem, req.Columns)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.store.CreateProfile(r.Context(), p); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) ListProfiles(w http.ResponseWriter, r *http.Request) {
	clubID := r.URL.Query().Get("clubId")
	if clubID == "" {
		writeError(w, http.StatusBadRequest, "clubId query parameter required")
		return
	}
	list, err := h.store.Profiles(r.Context(), clubID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if list == nil {
		list = []*profile.Profile{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.store.Profile(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	used, err := h.store.ReportCountReferencing(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":   p,
		"usedCount": used,
		"frozen":    used > 0,
	})
}

type updateColumnsRequest struct {
	Columns []profile.Column `json:"columns"`
}

// UpdateProfileColumns применяет правку колонок. Структурные изменения
// замороженного профиля (на него уже ссылаются отчёты) отклоняются с 409;
// презентационные (видимость, юнит, порядок) проходят всегда.
func (h *Handlers) UpdateProfileColumns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateColumnsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.store.Profile(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	used, err := h.store.ReportCountReferencing(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	structural, err := p.UpdateColumns(h.reg, req.Columns, used)
	if err != nil {
		if errors.Is(err, profile.ErrProfileFrozen) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	// повторная проверка заморозки внутри транзакции: отчёт мог
	// появиться между валидацией и записью
	if err := h.store.UpdateProfileColumns(r.Context(), p, structural); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
