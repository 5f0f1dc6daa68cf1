package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/invite"
	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/normalize"
)

type invitation struct {
	Attendee *models.Attendee `json:"attendee"`
	Link     string           `json:"link"`
	Payload  string           `json:"payload"`
}

// GetInvite returns what the public invite page shows for one attendee
func GetInvite(log zerolog.Logger, core Core, event invite.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.invite")

		a, err := core.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		payload, err := invite.Payload(a)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		render.JSON(w, r, Ok(invitation{
			Attendee: a,
			Link:     event.Link(a.ID),
			Payload:  string(payload),
		}))
	}
}

// LinkQR renders the invite link of any identifier; the attendee need not exist
func LinkQR(log zerolog.Logger, event invite.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.qr")

		id := normalize.AttendeeID(chi.URLParam(r, "id"))
		png, err := event.LinkQR(id, qrSize(r))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		writePNG(w, png, "public, max-age=3600")
	}
}

// PayloadQR renders the scan payload of a registered attendee
func PayloadQR(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.qr")

		a, err := core.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		png, err := invite.PayloadQR(a, qrSize(r))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		writePNG(w, png, "no-store")
	}
}

func qrSize(r *http.Request) int {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size < 64 || size > 2048 {
		return invite.DefaultQRSize
	}
	return size
}

func writePNG(w http.ResponseWriter, png []byte, cacheControl string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", cacheControl)
	_, _ = w.Write(png)
}
