package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/report"
)

// AttendanceReport renders the attendance summary; ?format=csv downloads the list
func AttendanceReport(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.report")

		list, err := core.List(r.Context())
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		now := time.Now()
		summary := report.Build(list, now)

		if r.URL.Query().Get("format") != "csv" {
			render.JSON(w, r, Ok(summary))
			return
		}

		var buf bytes.Buffer
		if err := summary.WriteCSV(&buf); err != nil {
			renderError(w, r, logger, err)
			return
		}
		filename := fmt.Sprintf("attendance-%s.csv", now.Format(time.DateOnly))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write(buf.Bytes())
	}
}
