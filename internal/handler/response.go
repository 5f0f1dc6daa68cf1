package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/apperr"
)

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrMalformedPayload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func renderError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	status := statusFor(err)
	message := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
		if status == http.StatusInternalServerError {
			message = "Internal error"
		}
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	render.Status(r, status)
	render.JSON(w, r, Error(message))
}

func renderBindError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	log.Debug().Err(err).Msg("bind request")
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error("Invalid request: "+apperr.Message(err)))
}

func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error("Requested resource not found"))
	}
}

func NotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, Error("Method not allowed"))
	}
}
