package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/models"
)

// store is the method set every backend shares
type store interface {
	Get(ctx context.Context, id string) (*models.Attendee, error)
	Insert(ctx context.Context, a *models.Attendee) error
	Replace(ctx context.Context, a *models.Attendee) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Attendee, error)
	Clear(ctx context.Context) error
}

func sample(id string, created time.Time) *models.Attendee {
	return &models.Attendee{
		ID:        id,
		Name:      id,
		Program:   "Teknik Sipil",
		Phone:     "6281234567890",
		Email:     "guest@example.com",
		NPM:       models.Placeholder,
		Seat:      models.Placeholder,
		Status:    models.StatusDraft,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func exerciseStore(t *testing.T, s store) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, sample("BUDI", base.Add(time.Minute))))
	require.NoError(t, s.Insert(ctx, sample("ANA", base)))

	err := s.Insert(ctx, sample("ANA", base))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := s.Get(ctx, "ANA")
	require.NoError(t, err)
	assert.Equal(t, "Teknik Sipil", got.Program)
	assert.Nil(t, got.ConfirmedAt)

	_, err = s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	confirmedAt := base.Add(2 * time.Hour)
	got.Status = models.StatusConfirmed
	got.WhatsAppSent = true
	got.ConfirmedAt = &confirmedAt
	got.UpdatedAt = confirmedAt
	require.NoError(t, s.Replace(ctx, got))

	got, err = s.Get(ctx, "ANA")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.True(t, got.WhatsAppSent)
	require.NotNil(t, got.ConfirmedAt)
	assert.True(t, confirmedAt.Equal(*got.ConfirmedAt))

	assert.ErrorIs(t, s.Replace(ctx, sample("GHOST", base)), apperr.ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ANA", list[0].ID)
	assert.Equal(t, "BUDI", list[1].ID)

	require.NoError(t, s.Delete(ctx, "BUDI"))
	assert.ErrorIs(t, s.Delete(ctx, "BUDI"), apperr.ErrNotFound)

	require.NoError(t, s.Clear(ctx))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, mustFileStore(t, filepath.Join(t.TempDir(), "attendees.json")))
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "attendees.json")
	ctx := context.Background()

	s := mustFileStore(t, path)
	require.NoError(t, s.Insert(ctx, sample("ANA", time.Now().UTC())))

	reopened := mustFileStore(t, path)
	got, err := reopened.Get(ctx, "ANA")
	require.NoError(t, err)
	assert.Equal(t, "ANA", got.Name)
}

func TestFileStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, sample("ANA", time.Now())))

	got, err := s.Get(ctx, "ANA")
	require.NoError(t, err)
	got.Name = "changed"

	again, err := s.Get(ctx, "ANA")
	require.NoError(t, err)
	assert.Equal(t, "ANA", again.Name)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "attendees.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func mustFileStore(t *testing.T, path string) *FileStore {
	t.Helper()
	s, err := NewFileStore(path)
	require.NoError(t, err)
	return s
}
