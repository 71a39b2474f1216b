// Package handlers — HTTP-обвязка над конвейером канонизации и
// хранилищем. Вся доменная логика живёт уровнем ниже, здесь только
// разбор запросов и коды ответов.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"gps-canon-service/internal/canon"
	"gps-canon-service/internal/config"
	"gps-canon-service/internal/ingest"
	"gps-canon-service/internal/middleware"
	"gps-canon-service/internal/profile"
	"gps-canon-service/internal/store"
)

type Handlers struct {
	cfg     config.Config
	log     zerolog.Logger
	reg     *canon.Registry
	store   *store.Store
	pipe    *ingest.Pipeline
	metrics *middleware.Metrics
}

func New(cfg config.Config, log zerolog.Logger, reg *canon.Registry, st *store.Store, m *middleware.Metrics) *Handlers {
	return &Handlers{
		cfg:     cfg,
		log:     log,
		reg:     reg,
		store:   st,
		pipe:    ingest.New(reg, log, ingest.WithMatchThreshold(cfg.MatchThreshold)),
		metrics: m,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"canonVersion": h.reg.Version(),
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storeError переводит ошибки хранилища и домена в HTTP-статусы.
func (h *Handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, profile.ErrProfileFrozen):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Str("rid", middleware.GetRequestID(r)).Msg("store")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
