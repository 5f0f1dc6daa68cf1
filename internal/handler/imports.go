package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/importer"
)

const maxImportSize = 10 << 20

type Importer interface {
	Import(ctx context.Context, rows []importer.Row, defaults importer.Defaults) (*importer.Result, error)
}

type importResponse struct {
	*importer.Result
	Count int `json:"inserted"`
}

// ImportAttendees replaces all attendees with the rows of an uploaded CSV.
// Form values defaultProgram and defaultSeat override the configured defaults.
// Once the existing attendees are cleared the import runs to completion: the
// request deadline and client disconnects do not cancel it.
func ImportAttendees(log zerolog.Logger, imp Importer, defaults importer.Defaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.import")

		r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			renderBindError(w, r, logger, err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, Error("CSV file is required"))
				return
			}
			renderBindError(w, r, logger, err)
			return
		}
		defer file.Close()

		rows, err := importer.ParseCSV(file)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		d := defaults
		if v := strings.TrimSpace(r.FormValue("defaultProgram")); v != "" {
			d.Program = v
		}
		if v := strings.TrimSpace(r.FormValue("defaultSeat")); v != "" {
			d.Seat = v
		}

		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			logger.Debug().Err(err).Msg("write deadline not cleared")
		}
		result, err := imp.Import(context.WithoutCancel(r.Context()), rows, d)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		logger.Info().
			Str("file", header.Filename).
			Int("rows", len(rows)).
			Int("inserted", result.InsertedCount()).
			Msg("csv imported")

		render.JSON(w, r, Ok(importResponse{Result: result, Count: result.InsertedCount()}))
	}
}
