// Package attendee owns the attendee lifecycle: creation as draft, marking as sent
// after a successful notification, and confirmation on scan.
//
// Every mutation is a read-modify-write of the whole record against the Store.
// There is no locking or version check: two confirms racing on one identifier both
// land on confirmed, and concurrent field edits on one record are last-writer-wins.
package attendee

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/invite"
	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/normalize"
	"rsvp-checkin/internal/validate"
)

// Store is the keyed record store the lifecycle persists through.
type Store interface {
	Get(ctx context.Context, id string) (*models.Attendee, error)
	// Insert fails with apperr.ErrConflict when the identifier is taken.
	Insert(ctx context.Context, a *models.Attendee) error
	// Replace fails with apperr.ErrNotFound when the identifier no longer exists.
	Replace(ctx context.Context, a *models.Attendee) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Attendee, error)
	Clear(ctx context.Context) error
}

// Notifier delivers an invitation to an attendee.
type Notifier interface {
	Send(ctx context.Context, destination, subject, body string) error
}

type Config struct {
	Event invite.Event
	Phone normalize.Phone
	// Clock defaults to time.Now
	Clock func() time.Time
}

type Service struct {
	store    Store
	notifier Notifier
	event    invite.Event
	phone    normalize.Phone
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates the lifecycle controller; notifier may be nil when
// notifications are disabled.
func NewService(store Store, notifier Notifier, cfg *Config, log zerolog.Logger) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		phone:    normalize.DefaultPhone,
		now:      time.Now,
		log:      log.With().Str("component", "attendee").Logger(),
	}
	if cfg != nil {
		s.event = cfg.Event
		if cfg.Phone.CountryCode != "" {
			s.phone = cfg.Phone
		}
		if cfg.Clock != nil {
			s.now = cfg.Clock
		}
	}
	return s
}

// CreateRequest carries the attributes of a new attendee
type CreateRequest struct {
	Name    string `json:"name" validate:"required"`
	Program string `json:"program" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"required"`
	NPM     string `json:"npm"`
	Seat    string `json:"seat"`
}

func (r *CreateRequest) trim() {
	r.Name = normalize.CollapseSpaces(r.Name)
	r.Program = strings.TrimSpace(r.Program)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.NPM = strings.TrimSpace(r.NPM)
	r.Seat = strings.TrimSpace(r.Seat)
}

// Create registers a new draft attendee identified by its normalized name
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Attendee, error) {
	return s.create(ctx, req, "")
}

// CreateWithID registers a new draft attendee under an explicit identifier
func (s *Service) CreateWithID(ctx context.Context, req CreateRequest, id string) (*models.Attendee, error) {
	return s.create(ctx, req, id)
}

func (s *Service) create(ctx context.Context, req CreateRequest, override string) (*models.Attendee, error) {
	const op = "create attendee"

	req.trim()
	if err := validate.Struct(op, &req); err != nil {
		return nil, err
	}

	source := override
	if strings.TrimSpace(source) == "" {
		source = req.Name
	}
	id := normalize.AttendeeID(source)
	if id == "" {
		return nil, apperr.Validation(op, "attendee id is empty")
	}

	phone := s.phone.Normalize(req.Phone)
	if phone == "" {
		return nil, apperr.Validation(op, "phone must contain digits")
	}

	now := s.now()
	a := &models.Attendee{
		ID:        id,
		Name:      req.Name,
		Program:   req.Program,
		Phone:     phone,
		Email:     req.Email,
		NPM:       orPlaceholder(req.NPM),
		Seat:      orPlaceholder(req.Seat),
		Status:    models.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, a); err != nil {
		return nil, apperr.Dependency(op, err)
	}

	s.log.Info().Str("id", a.ID).Msg("attendee created")
	return a, nil
}

// Get loads an attendee by a raw (possibly encoded or mis-cased) identifier
func (s *Service) Get(ctx context.Context, rawID string) (*models.Attendee, error) {
	const op = "get attendee"

	id, err := requireID(op, rawID)
	if err != nil {
		return nil, err
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return a, nil
}

// List returns every attendee in creation order
func (s *Service) List(ctx context.Context) ([]models.Attendee, error) {
	attendees, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Dependency("list attendees", err)
	}
	return attendees, nil
}

// Confirm marks the attendee as checked in. Confirming an already confirmed
// attendee succeeds again and moves confirmedAt to the later call.
func (s *Service) Confirm(ctx context.Context, rawID string) (*models.Attendee, error) {
	a, err := s.update(ctx, "confirm attendee", rawID, func(a *models.Attendee, now time.Time) error {
		a.Status = models.StatusConfirmed
		a.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", a.ID).Msg("attendee confirmed")
	return a, nil
}

// Unconfirm reverses a confirmation back to sent and clears confirmedAt.
// Attendees that are not confirmed are returned untouched.
func (s *Service) Unconfirm(ctx context.Context, rawID string) (*models.Attendee, error) {
	return s.update(ctx, "unconfirm attendee", rawID, func(a *models.Attendee, _ time.Time) error {
		if a.Status != models.StatusConfirmed {
			return errUnchanged
		}
		a.Status = models.StatusSent
		a.ConfirmedAt = nil
		return nil
	})
}

// MarkSent records a successful notification
func (s *Service) MarkSent(ctx context.Context, rawID string) (*models.Attendee, error) {
	return s.update(ctx, "mark sent", rawID, func(a *models.Attendee, _ time.Time) error {
		a.WhatsAppSent = true
		if a.Status == models.StatusDraft {
			a.Status = models.StatusSent
		}
		return nil
	})
}

// Update applies mutator to a copy of the stored record and persists the
// whole result. The identifier and creation time cannot be changed.
func (s *Service) Update(ctx context.Context, rawID string, mutator func(current models.Attendee) models.Attendee) (*models.Attendee, error) {
	return s.update(ctx, "update attendee", rawID, func(a *models.Attendee, _ time.Time) error {
		*a = mutator(*a)
		return nil
	})
}

// Delete removes an attendee
func (s *Service) Delete(ctx context.Context, rawID string) error {
	const op = "delete attendee"

	id, err := requireID(op, rawID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Dependency(op, err)
	}
	s.log.Info().Str("id", id).Msg("attendee deleted")
	return nil
}

// Clear removes every attendee
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return apperr.Dependency("clear attendees", err)
	}
	s.log.Warn().Msg("all attendees cleared")
	return nil
}

// errUnchanged lets a mutation skip the write
var errUnchanged = errors.New("unchanged")

func (s *Service) update(ctx context.Context, op, rawID string, mutate func(a *models.Attendee, now time.Time) error) (*models.Attendee, error) {
	id, err := requireID(op, rawID)
	if err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}

	next := *current
	now := s.now()
	if err := mutate(&next, now); err != nil {
		if errors.Is(err, errUnchanged) {
			return current, nil
		}
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = now

	if err := s.store.Replace(ctx, &next); err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return &next, nil
}

func requireID(op, rawID string) (string, error) {
	id := normalize.AttendeeID(rawID)
	if id == "" {
		return "", apperr.Validation(op, "attendee id is required")
	}
	return id, nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return models.Placeholder
	}
	return s
}
