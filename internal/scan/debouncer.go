package scan

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/normalize"
)

const DefaultWindow = 800 * time.Millisecond

// Confirmer is the lifecycle operation a scan is forwarded to
type Confirmer interface {
	Confirm(ctx context.Context, rawID string) (*models.Attendee, error)
}

type Outcome string

const (
	// OutcomeIgnored: blank input
	OutcomeIgnored Outcome = "ignored"
	// OutcomeBusy: dropped because a confirmation was still in flight
	OutcomeBusy Outcome = "busy"
	// OutcomeRejected: the code could not be parsed
	OutcomeRejected Outcome = "rejected"
	// OutcomeDuplicate: same identifier repeated inside the window
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeFailed: forwarded, but the confirmation returned an error
	OutcomeFailed Outcome = "failed"
)

type Result struct {
	Input    string
	ID       string
	Outcome  Outcome
	Attendee *models.Attendee
	Err      error
}

// Debouncer forwards scans to a Confirmer, dropping rapid repeats of the same
// identifier and anything submitted while a confirmation runs.
type Debouncer struct {
	confirmer Confirmer
	window    time.Duration
	now       func() time.Time
	log       zerolog.Logger

	mu       sync.Mutex
	inFlight bool
	lastID   string
	lastAt   time.Time
	pending  strings.Builder
}

type Option func(*Debouncer)

// WithWindow overrides DefaultWindow; non-positive values are ignored
func WithWindow(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(db *Debouncer) {
		if now != nil {
			db.now = now
		}
	}
}

func NewDebouncer(confirmer Confirmer, log zerolog.Logger, opts ...Option) *Debouncer {
	d := &Debouncer{
		confirmer: confirmer,
		window:    DefaultWindow,
		now:       time.Now,
		log:       log.With().Str("component", "scan").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit handles one complete scan
func (d *Debouncer) Submit(ctx context.Context, raw string) Result {
	res := Result{Input: raw}
	if strings.TrimSpace(raw) == "" {
		res.Outcome = OutcomeIgnored
		return res
	}

	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()
		res.Outcome = OutcomeBusy
		d.log.Debug().Str("input", raw).Msg("scan dropped while busy")
		return res
	}

	payload, err := ParsePayload(raw)
	if err != nil {
		d.mu.Unlock()
		res.Outcome = OutcomeRejected
		res.Err = err
		d.log.Warn().Err(err).Str("input", raw).Msg("scan rejected")
		return res
	}

	res.ID = normalize.AttendeeID(payload.InviteID)
	now := d.now()
	if res.ID == d.lastID && now.Sub(d.lastAt) < d.window {
		d.mu.Unlock()
		res.Outcome = OutcomeDuplicate
		return res
	}
	d.lastID = res.ID
	d.lastAt = now
	d.inFlight = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}()

	a, err := d.confirmer.Confirm(ctx, res.ID)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		d.log.Warn().Err(err).Str("id", res.ID).Msg("scan confirmation failed")
		return res
	}
	res.Outcome = OutcomeConfirmed
	res.Attendee = a
	d.log.Info().Str("id", a.ID).Msg("scan confirmed")
	return res
}

// Feed accepts raw keystrokes. Every carriage return or line feed submits
// the text typed since the previous one; the rest stays buffered.
func (d *Debouncer) Feed(ctx context.Context, chunk string) []Result {
	var lines []string

	d.mu.Lock()
	for _, r := range chunk {
		if r == '\r' || r == '\n' {
			lines = append(lines, d.pending.String())
			d.pending.Reset()
			continue
		}
		d.pending.WriteRune(r)
	}
	d.mu.Unlock()

	results := make([]Result, 0, len(lines))
	for _, line := range lines {
		res := d.Submit(ctx, line)
		if res.Outcome == OutcomeIgnored {
			// CRLF yields an empty line between the two terminators
			continue
		}
		results = append(results, res)
	}
	return results
}

// Flush submits whatever is buffered without a terminator
func (d *Debouncer) Flush(ctx context.Context) Result {
	d.mu.Lock()
	line := d.pending.String()
	d.pending.Reset()
	d.mu.Unlock()
	return d.Submit(ctx, line)
}
