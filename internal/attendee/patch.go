package attendee

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/normalize"
)

// Changes is a partial edit; nil fields are left as they are.
// The identifier is never part of an edit.
type Changes struct {
	Name         *string        `json:"name,omitempty"`
	Program      *string        `json:"program,omitempty"`
	Phone        *string        `json:"phone,omitempty"`
	Email        *string        `json:"email,omitempty"`
	NPM          *string        `json:"npm,omitempty"`
	Seat         *string        `json:"seat,omitempty"`
	Status       *models.Status `json:"status,omitempty"`
	WhatsAppSent *bool          `json:"whatsappSent,omitempty"`
}

// Patch applies changes to the stored attendee
func (s *Service) Patch(ctx context.Context, rawID string, changes Changes) (*models.Attendee, error) {
	const op = "patch attendee"

	a, err := s.update(ctx, op, rawID, func(a *models.Attendee, now time.Time) error {
		return s.apply(op, a, changes, now)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", a.ID).Str("status", string(a.Status)).Msg("attendee updated")
	return a, nil
}

func (s *Service) apply(op string, a *models.Attendee, c Changes, now time.Time) error {
	required := []struct {
		field  string
		value  *string
		target *string
	}{
		{"name", c.Name, &a.Name},
		{"program", c.Program, &a.Program},
		{"email", c.Email, &a.Email},
	}
	for _, r := range required {
		if r.value == nil {
			continue
		}
		v := strings.TrimSpace(*r.value)
		if v == "" {
			return apperr.Validation(op, r.field+" required")
		}
		*r.target = v
	}
	if c.Name != nil {
		a.Name = normalize.CollapseSpaces(a.Name)
	}

	if c.Phone != nil {
		phone := s.phone.Normalize(*c.Phone)
		if phone == "" {
			return apperr.Validation(op, "phone must contain digits")
		}
		a.Phone = phone
	}
	if c.NPM != nil {
		a.NPM = orPlaceholder(strings.TrimSpace(*c.NPM))
	}
	if c.Seat != nil {
		a.Seat = orPlaceholder(strings.TrimSpace(*c.Seat))
	}

	if c.WhatsAppSent != nil {
		if !*c.WhatsAppSent && a.WhatsAppSent {
			return apperr.Validation(op, "whatsappSent cannot be reset")
		}
		a.WhatsAppSent = a.WhatsAppSent || *c.WhatsAppSent
	}

	if c.Status != nil {
		status := *c.Status
		if !status.Valid() {
			return apperr.Validation(op, fmt.Sprintf("unknown status %q", status))
		}
		switch {
		case status == models.StatusConfirmed && a.Status != models.StatusConfirmed:
			a.ConfirmedAt = &now
		case status != models.StatusConfirmed:
			a.ConfirmedAt = nil
		}
		a.Status = status
	}
	return nil
}
