package attendee

import (
	"context"
	"errors"
	"strings"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/models"
)

var errNoNotifier = errors.New("notification sender not configured")

// Notify sends the invitation to the attendee and, once delivered, marks the
// attendee as sent. A blank message is replaced by the default reminder.
func (s *Service) Notify(ctx context.Context, rawID, message string) (*models.Attendee, error) {
	const op = "notify attendee"

	if s.notifier == nil {
		return nil, apperr.Dependency(op, errNoNotifier)
	}

	a, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if a.Phone == "" {
		return nil, apperr.Validation(op, "attendee has no phone number")
	}

	body := strings.TrimSpace(message)
	if body == "" {
		body = s.event.Message(a, s.event.Link(a.ID))
	}

	if err := s.notifier.Send(ctx, a.Phone, s.event.Subject(), body); err != nil {
		s.log.Error().Err(err).Str("id", a.ID).Msg("failed to send invitation")
		return nil, apperr.Dependency(op, err)
	}

	updated, err := s.MarkSent(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", updated.ID).Str("phone", updated.Phone).Msg("invitation sent")
	return updated, nil
}
