package handlers

import (
	"net/http"
)

// Metrics отдаёт каноничный реестр метрик — словарь для построения
// профилей на клиенте. Устаревшие ключи по умолчанию скрыты.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	includeDeprecated := r.URL.Query().Get("includeDeprecated") == "true"
	writeJSON(w, http.StatusOK, map[string]any{
		"version": h.reg.Version(),
		"metrics": h.reg.Metrics(includeDeprecated),
	})
}

type suggestRequest struct {
	Headers []string `json:"headers"`
}

// Suggest — подсказки маппинга заголовков на каноничные ключи.
// Неопознанный заголовок отдаётся как null, клиент решает сам.
func (h *Handlers) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	type pair struct {
		Header     string  `json:"header"`
		Suggestion *string `json:"suggestion"`
	}
	out := make([]pair, 0, len(req.Headers))
	for _, hd := range req.Headers {
		out = append(out, pair{Header: hd, Suggestion: h.reg.Suggest(hd)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}
