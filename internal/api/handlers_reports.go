package api

import (
	"net/http"
	"path/filepath"
	"time"
)

// handleExportRentals builds the schedule workbook for the requested
// window and serves the file. Defaults cover last month through two
// months out.
func (s *Server) handleExportRentals(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	start, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	if start == nil {
		from := now.AddDate(0, -1, 0)
		start = &from
	}
	if end == nil {
		to := now.AddDate(0, 2, 0)
		end = &to
	}

	path, err := s.exporter.ExportSchedule(r.Context(), *start, *end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day := time.Now()
	if date != nil {
		day = *date
	}

	summary, err := s.db.GetDailySummary(r.Context(), day)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
