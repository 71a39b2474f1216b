package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gps-canon-service/internal/fileio"
	"gps-canon-service/internal/ingest"
	"gps-canon-service/internal/middleware"
	"gps-canon-service/internal/profile"
	"gps-canon-service/internal/store"
)

// Ingest принимает multipart-загрузку вендорного файла (CSV/XLS/XLSX),
// прогоняет её через конвейер и сохраняет отчёт вместе с сырыми данными
// и снапшотом профиля. Исходник хранится целиком: переобработка должна
// воспроизводиться без повторной загрузки файла.
func (h *Handlers) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(h.cfg.MaxUploadMB) << 20); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}

	profileID := r.FormValue("profileId")
	if profileID == "" {
		writeError(w, http.StatusBadRequest, "profileId form field required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	headerRow := 1
	if v := r.FormValue("headerRow"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "headerRow must be a non-negative integer")
			return
		}
		headerRow = n
	}

	p, err := h.store.Profile(r.Context(), profileID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	table, err := fileio.ReadTable(file, header.Filename, headerRow)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}

	roster, err := h.store.Roster(r.Context(), p.ClubID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	now := time.Now().UTC()
	snap := profile.BuildSnapshot(p, h.reg.Version(), now)
	raw := rawFromTable(table)

	res := h.pipe.Process(ingest.Input{
		Raw:      raw,
		Snapshot: snap,
		Roster:   roster,
	})

	rep := &store.Report{
		ID:           uuid.NewString(),
		ProfileID:    p.ID,
		FileName:     header.Filename,
		CanonVersion: snap.CanonVersion,
		RawData:      raw,
		Snapshot:     snap,
		Canonical:    res.Canonical,
		ImportMeta:   res.Meta,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.SaveReport(r.Context(), rep); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.metrics.IngestTotal.Inc()
	h.metrics.IngestRows.Add(float64(res.Meta.Counts.Canonical))
	for _, wn := range res.Meta.Warnings {
		h.metrics.IngestWarnings.WithLabelValues(wn.Code).Add(float64(max(wn.Count, 1)))
	}

	h.log.Info().
		Str("rid", middleware.GetRequestID(r)).
		Str("report", rep.ID).
		Str("file", rep.FileName).
		Str("strategy", string(res.Meta.Strategy)).
		Msg("ingest")

	writeJSON(w, http.StatusCreated, rep)
}

// rawFromTable переводит прочитанную таблицу в сырое представление
// отчёта. Ячейки остаются строками: конвейер сам решает, что есть
// число, а что время.
func rawFromTable(t fileio.Table) ingest.RawTable {
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(r))
		for j, c := range r {
			row[j] = c
		}
		rows[i] = row
	}
	return ingest.RawTable{Headers: t.Headers, Rows: rows}
}
