package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/scan"
	"rsvp-checkin/internal/validate"
)

type scanRequest struct {
	Code string `json:"code" validate:"required"`
}

func (s *scanRequest) Bind(_ *http.Request) error {
	return validate.Struct("bind scan", s)
}

// Scan confirms the attendee behind a scanned code
func Scan(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.scan")

		var req scanRequest
		if err := render.Bind(r, &req); err != nil {
			renderBindError(w, r, logger, err)
			return
		}

		payload, err := scan.ParsePayload(req.Code)
		if err != nil {
			renderScanError(w, r, logger, err)
			return
		}

		a, err := core.Confirm(r.Context(), payload.InviteID)
		if err != nil {
			renderScanError(w, r, logger, err)
			return
		}
		logger.Info().Str("id", a.ID).Msg("scan confirmed")
		render.JSON(w, r, Ok(a))
	}
}

// renderScanError reports unknown and unreadable codes the same way to the gate
func renderScanError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrMalformedPayload) {
		log.Info().Err(err).Msg("invalid code scanned")
		render.Status(r, statusFor(err))
		render.JSON(w, r, Error("invalid code"))
		return
	}
	renderError(w, r, log, err)
}
