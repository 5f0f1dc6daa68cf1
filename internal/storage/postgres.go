package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/models"
)

// attendeeRow is the gorm mapping of the attendees table
type attendeeRow struct {
	ID           string     `gorm:"column:id;primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Program      string     `gorm:"column:program;not null"`
	Phone        string     `gorm:"column:phone;not null"`
	Email        string     `gorm:"column:email;not null"`
	NPM          string     `gorm:"column:npm;not null;default:'-'"`
	Seat         string     `gorm:"column:seat;not null;default:'-'"`
	Status       string     `gorm:"column:status;type:varchar(16);not null;default:'draft';index"`
	WhatsAppSent bool       `gorm:"column:whatsapp_sent;not null;default:false"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;index;autoCreateTime:false"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (attendeeRow) TableName() string { return "attendees" }

func toRow(a *models.Attendee) attendeeRow {
	return attendeeRow{
		ID:           a.ID,
		Name:         a.Name,
		Program:      a.Program,
		Phone:        a.Phone,
		Email:        a.Email,
		NPM:          a.NPM,
		Seat:         a.Seat,
		Status:       string(a.Status),
		WhatsAppSent: a.WhatsAppSent,
		ConfirmedAt:  a.ConfirmedAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r attendeeRow) toModel() models.Attendee {
	return models.Attendee{
		ID:           r.ID,
		Name:         r.Name,
		Program:      r.Program,
		Phone:        r.Phone,
		Email:        r.Email,
		NPM:          r.NPM,
		Seat:         r.Seat,
		Status:       models.Status(r.Status),
		WhatsAppSent: r.WhatsAppSent,
		ConfirmedAt:  r.ConfirmedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// PostgresStore persists attendees in PostgreSQL through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgres connects to dsn and migrates the attendees table
func NewPostgres(dsn string, log zerolog.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&attendeeRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Attendee, error) {
	var row attendeeRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("get", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	a := row.toModel()
	return &a, nil
}

func (s *PostgresStore) Insert(ctx context.Context, a *models.Attendee) error {
	row := toRow(a)
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("insert", a.ID)
	}
	if err != nil {
		return fmt.Errorf("postgres insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, a *models.Attendee) error {
	row := toRow(a)
	res := s.db.WithContext(ctx).
		Model(&attendeeRow{}).
		Where("id = ?", a.ID).
		Select("name", "program", "phone", "email", "npm", "seat",
			"status", "whatsapp_sent", "confirmed_at", "updated_at").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("postgres replace: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("replace", a.ID)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&attendeeRow{})
	if res.Error != nil {
		return fmt.Errorf("postgres delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("delete", id)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Attendee, error) {
	var rows []attendeeRow
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	attendees := make([]models.Attendee, 0, len(rows))
	for _, r := range rows {
		attendees = append(attendees, r.toModel())
	}
	return attendees, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&attendeeRow{}).Error
	if err != nil {
		return fmt.Errorf("postgres clear: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormLogger routes gorm logs into zerolog
type GormLogger struct {
	log           zerolog.Logger
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger(log zerolog.Logger) gormLogger.Interface {
	return &GormLogger{
		log:           log.With().Str("component", "gorm").Logger(),
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	next := *l
	next.LogLevel = level
	return &next
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.log.Info().Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.log.Warn().Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.log.Error().Msgf(msg, data...)
	}
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		sql, rows := fc()
		l.log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case l.LogLevel >= gormLogger.Info:
		sql, rows := fc()
		l.log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("query")
	}
}
