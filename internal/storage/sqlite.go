package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/models"
)

const sqliteSchema = `
create table if not exists attendees (
	id            text primary key,
	name          text not null,
	program       text not null,
	phone         text not null,
	email         text not null,
	npm           text not null default '-',
	seat          text not null default '-',
	status        text not null default 'draft',
	whatsapp_sent integer not null default 0,
	confirmed_at  timestamp null,
	created_at    timestamp not null,
	updated_at    timestamp not null
);
create index if not exists attendees_created_at on attendees (created_at);
`

const attendeeColumns = `id, name, program, phone, email, npm, seat, status, whatsapp_sent, confirmed_at, created_at, updated_at`

// SQLiteStore persists attendees in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) the database at path
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time, readers share the same handle
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Attendee, error) {
	row := s.db.QueryRowContext(ctx, `select `+attendeeColumns+` from attendees where id = ? limit 1`, id)
	a, err := scanAttendee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("get", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, a *models.Attendee) error {
	_, err := s.db.ExecContext(ctx,
		`insert into attendees (`+attendeeColumns+`) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Program, a.Phone, a.Email, a.NPM, a.Seat, string(a.Status),
		a.WhatsAppSent, nullTime(a.ConfirmedAt), a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return apperr.Conflict("insert", a.ID)
	}
	if err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Replace(ctx context.Context, a *models.Attendee) error {
	res, err := s.db.ExecContext(ctx,
		`update attendees
		 set name = ?, program = ?, phone = ?, email = ?, npm = ?, seat = ?,
		     status = ?, whatsapp_sent = ?, confirmed_at = ?, updated_at = ?
		 where id = ?`,
		a.Name, a.Program, a.Phone, a.Email, a.NPM, a.Seat,
		string(a.Status), a.WhatsAppSent, nullTime(a.ConfirmedAt), a.UpdatedAt.UTC(),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite replace: %w", err)
	}
	return requireAffected(res, "replace", a.ID)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from attendees where id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return requireAffected(res, "delete", id)
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Attendee, error) {
	rows, err := s.db.QueryContext(ctx, `select `+attendeeColumns+` from attendees order by created_at asc, rowid asc`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	defer rows.Close()

	attendees := make([]models.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite list: %w", err)
		}
		attendees = append(attendees, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	return attendees, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `delete from attendees`); err != nil {
		return fmt.Errorf("sqlite clear: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row rowScanner) (*models.Attendee, error) {
	var (
		a           models.Attendee
		status      string
		confirmedAt sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Program, &a.Phone, &a.Email, &a.NPM, &a.Seat,
		&status, &a.WhatsAppSent, &confirmedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = models.Status(status)
	if confirmedAt.Valid {
		t := confirmedAt.Time
		a.ConfirmedAt = &t
	}
	return &a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func requireAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return apperr.NotFound(op, id)
	}
	return nil
}
