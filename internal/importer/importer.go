// Package importer turns loosely structured spreadsheet rows into attendees.
//
// A full import replaces the attendee set: existing attendees are cleared before
// the first row is applied, and rows that fail are reported without stopping the
// batch. The clear is not transactional; rows inserted before a crash stay.
package importer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/attendee"
	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/normalize"
)

const (
	DefaultProgram = "Lainnya"
	DefaultSeat    = models.Placeholder

	maxSeatLength = 10
	// data rows start below a single header line and are numbered from 1
	headerOffset = 2
)

// Row is one source row; cells keep the source column order
type Row []Cell

type Cell struct {
	Column string
	Value  string
}

// Defaults fill program and seat when a row has none
type Defaults struct {
	Program string
	Seat    string
}

// RowError reports a rejected row by its source line number
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type Result struct {
	BatchID  string     `json:"batchId"`
	Inserted []string   `json:"insertedIds"`
	Errors   []RowError `json:"errors"`
}

func (r *Result) InsertedCount() int {
	return len(r.Inserted)
}

// Registry is the part of the lifecycle controller an import needs
type Registry interface {
	Clear(ctx context.Context) error
	CreateWithID(ctx context.Context, req attendee.CreateRequest, id string) (*models.Attendee, error)
}

type Resolver struct {
	registry Registry
	log      zerolog.Logger
}

func NewResolver(registry Registry, log zerolog.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		log:      log.With().Str("component", "importer").Logger(),
	}
}

// Import clears all attendees and inserts rows in order. The returned error is
// only set when the clear fails; row level failures are collected in Result.
func (r *Resolver) Import(ctx context.Context, rows []Row, defaults Defaults) (*Result, error) {
	batchID := uuid.NewString()
	log := r.log.With().Str("batch", batchID).Int("rows", len(rows)).Logger()
	defaults = defaults.withFallbacks()

	if err := r.registry.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clear attendees before import")
		return nil, fmt.Errorf("import aborted: %w", err)
	}

	result := &Result{
		BatchID:  batchID,
		Inserted: make([]string, 0, len(rows)),
		Errors:   make([]RowError, 0),
	}
	idCounts := make(map[string]int)

	for index, raw := range rows {
		line := index + headerOffset
		req := resolve(normalizeKeys(raw), defaults)

		if req.Name == "" || req.Phone == "" || req.Email == "" {
			result.Errors = append(result.Errors, RowError{
				Row:     line,
				Message: "name, email and phone columns are required",
			})
			continue
		}

		baseID := normalize.AttendeeID(req.Name)
		idCounts[baseID]++
		id := baseID
		if n := idCounts[baseID]; n > 1 {
			id = fmt.Sprintf("%s-%d", baseID, n)
		}

		a, err := r.registry.CreateWithID(ctx, req, id)
		if err != nil {
			log.Warn().Err(err).Int("row", line).Str("id", id).Msg("row rejected")
			result.Errors = append(result.Errors, RowError{Row: line, Message: apperr.Message(err)})
			continue
		}
		result.Inserted = append(result.Inserted, a.ID)
	}

	log.Info().
		Int("inserted", result.InsertedCount()).
		Int("errors", len(result.Errors)).
		Msg("import finished")
	return result, nil
}

func (d Defaults) withFallbacks() Defaults {
	d.Program = strings.TrimSpace(d.Program)
	if d.Program == "" {
		d.Program = DefaultProgram
	}
	d.Seat = strings.TrimSpace(d.Seat)
	if d.Seat == "" {
		d.Seat = DefaultSeat
	}
	return d
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey lower-cases a column header into snake_case
func NormalizeKey(key string) string {
	key = nonKeyChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "_")
	return strings.Trim(key, "_")
}

// normalizedRow keeps keyed access and source column order for fallbacks
type normalizedRow struct {
	byKey map[string]string
	cells []Cell
}

func normalizeKeys(row Row) normalizedRow {
	nr := normalizedRow{
		byKey: make(map[string]string, len(row)),
		cells: make([]Cell, 0, len(row)),
	}
	for _, c := range row {
		key := NormalizeKey(c.Column)
		value := strings.TrimSpace(c.Value)
		// the first non-empty cell wins when two headers collapse to one key
		if nr.byKey[key] == "" {
			nr.byKey[key] = value
		}
		nr.cells = append(nr.cells, Cell{Column: key, Value: value})
	}
	return nr
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
