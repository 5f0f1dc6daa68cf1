package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/attendee"
	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/validate"
)

// Core is the attendee lifecycle as seen by the API
type Core interface {
	Create(ctx context.Context, req attendee.CreateRequest) (*models.Attendee, error)
	Get(ctx context.Context, rawID string) (*models.Attendee, error)
	List(ctx context.Context) ([]models.Attendee, error)
	Patch(ctx context.Context, rawID string, changes attendee.Changes) (*models.Attendee, error)
	Delete(ctx context.Context, rawID string) error
	Confirm(ctx context.Context, rawID string) (*models.Attendee, error)
	Unconfirm(ctx context.Context, rawID string) (*models.Attendee, error)
	Notify(ctx context.Context, rawID, message string) (*models.Attendee, error)
}

type createRequest struct {
	attendee.CreateRequest
}

func (c *createRequest) Bind(_ *http.Request) error {
	return validate.Struct("bind attendee", &c.CreateRequest)
}

type patchRequest struct {
	attendee.Changes
}

func (p *patchRequest) Bind(_ *http.Request) error {
	return nil
}

type notifyRequest struct {
	Message string `json:"message"`
}

func (n *notifyRequest) Bind(_ *http.Request) error {
	return nil
}

type attendeeList struct {
	Attendees []models.Attendee `json:"attendees"`
}

type deleted struct {
	ID string `json:"id"`
}

func ListAttendees(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.attendees")

		list, err := core.List(r.Context())
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		if list == nil {
			list = []models.Attendee{}
		}
		render.JSON(w, r, Ok(attendeeList{Attendees: list}))
	}
}

func CreateAttendee(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.attendees")

		var req createRequest
		if err := render.Bind(r, &req); err != nil {
			renderBindError(w, r, logger, err)
			return
		}

		a, err := core.Create(r.Context(), req.CreateRequest)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		logger.Debug().Str("id", a.ID).Msg("attendee created")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Ok(a))
	}
}

func GetAttendee(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.attendees")

		a, err := core.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		render.JSON(w, r, Ok(a))
	}
}

func PatchAttendee(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.attendees")

		var req patchRequest
		if err := render.Bind(r, &req); err != nil {
			renderBindError(w, r, logger, err)
			return
		}

		a, err := core.Patch(r.Context(), chi.URLParam(r, "id"), req.Changes)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		render.JSON(w, r, Ok(a))
	}
}

func DeleteAttendee(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.attendees")

		id := chi.URLParam(r, "id")
		if err := core.Delete(r.Context(), id); err != nil {
			renderError(w, r, logger, err)
			return
		}
		render.JSON(w, r, Ok(deleted{ID: id}))
	}
}

func ConfirmAttendee(log zerolog.Logger, core Core) http.HandlerFunc {
	return transition(log, core.Confirm)
}

func UnconfirmAttendee(log zerolog.Logger, core Core) http.HandlerFunc {
	return transition(log, core.Unconfirm)
}

func transition(log zerolog.Logger, apply func(ctx context.Context, rawID string) (*models.Attendee, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.attendees")

		a, err := apply(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		render.JSON(w, r, Ok(a))
	}
}

func NotifyAttendee(log zerolog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r, "http.handlers.notify")

		var req notifyRequest
		if r.ContentLength != 0 {
			if err := render.Bind(r, &req); err != nil {
				renderBindError(w, r, logger, err)
				return
			}
		}

		a, err := core.Notify(r.Context(), chi.URLParam(r, "id"), req.Message)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}
		render.JSON(w, r, Ok(a))
	}
}
