package attendee

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/invite"
	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/storage"
)

// stepClock advances one second per call
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingNotifier struct {
	err   error
	calls []notification
}

type notification struct {
	destination, subject, body string
}

func (n *recordingNotifier) Send(_ context.Context, destination, subject, body string) error {
	n.calls = append(n.calls, notification{destination, subject, body})
	return n.err
}

// brokenStore fails every call with a transport-style error
type brokenStore struct{ *storage.FileStore }

var errStoreDown = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) (*models.Attendee, error) { return nil, errStoreDown }
func (brokenStore) Insert(context.Context, *models.Attendee) error       { return errStoreDown }

func newTestService(t *testing.T, notifier Notifier) (*Service, *stepClock) {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, 1, 28, 8, 0, 0, 0, time.UTC)}
	svc := NewService(storage.NewMemoryStore(), notifier, &Config{
		Event: invite.Event{Name: "Graduation", Schedule: "Wed 09.00", Venue: "Hall A", LinkPrefix: "https://rsvp.example.com/invite"},
		Clock: clock.Now,
	}, zerolog.Nop())
	return svc, clock
}

func validRequest(name string) CreateRequest {
	return CreateRequest{
		Name:    name,
		Program: "Informatics",
		Phone:   "0812-3456-7890",
		Email:   "jane@example.com",
	}
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	a, err := svc.Create(ctx, validRequest("  jane   doe "))
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE", a.ID)
	assert.Equal(t, "jane doe", a.Name)
	assert.Equal(t, "6281234567890", a.Phone)
	assert.Equal(t, models.StatusDraft, a.Status)
	assert.False(t, a.WhatsAppSent)
	assert.Nil(t, a.ConfirmedAt)
	assert.Equal(t, models.Placeholder, a.NPM)
	assert.Equal(t, models.Placeholder, a.Seat)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	stored, err := svc.Get(ctx, "jane doe")
	require.NoError(t, err)
	assert.Equal(t, a, stored)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, mutate := range []func(*CreateRequest){
		func(r *CreateRequest) { r.Name = "" },
		func(r *CreateRequest) { r.Program = "  " },
		func(r *CreateRequest) { r.Phone = "" },
		func(r *CreateRequest) { r.Email = "" },
		func(r *CreateRequest) { r.Phone = "n/a" },
	} {
		req := validRequest("Jane Doe")
		mutate(&req)
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateDuplicateID(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, validRequest("JANE  DOE"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateWithID(t *testing.T) {
	svc, _ := newTestService(t, nil)

	a, err := svc.CreateWithID(context.Background(), validRequest("Jane Doe"), "jane doe-2")
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE-2", a.ID)
}

func TestConfirmNotFound(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	for _, raw := range []string{"john doe", "  JOHN   DOE ", "John%20Doe"} {
		_, err := svc.Confirm(ctx, raw)
		assert.ErrorIs(t, err, apperr.ErrNotFound, "input %q", raw)
	}

	_, err = svc.Confirm(ctx, "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestConfirmIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	first, err := svc.Confirm(ctx, " jane%20doe ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, first.Status)
	require.NotNil(t, first.ConfirmedAt)
	assert.Equal(t, created.CreatedAt, first.CreatedAt)

	second, err := svc.Confirm(ctx, "JANE DOE")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, second.Status)
	require.NotNil(t, second.ConfirmedAt)
	assert.True(t, second.ConfirmedAt.After(*first.ConfirmedAt))
	assert.Equal(t, *second.ConfirmedAt, second.UpdatedAt)
}

func TestConcurrentConfirms(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Confirm(ctx, "jane doe")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	a, err := svc.Get(ctx, "JANE DOE")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, a.Status)
	assert.NotNil(t, a.ConfirmedAt)
}

func TestUnconfirm(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	draft, err := svc.Unconfirm(ctx, "jane doe")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)

	_, err = svc.Confirm(ctx, "jane doe")
	require.NoError(t, err)

	reverted, err := svc.Unconfirm(ctx, "jane doe")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, reverted.Status)
	assert.Nil(t, reverted.ConfirmedAt)
}

func TestUpdateKeepsIdentity(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "jane doe", func(current models.Attendee) models.Attendee {
		current.ID = "SOMEONE ELSE"
		current.Name = "Jane Smith"
		current.CreatedAt = time.Time{}
		return current
	})
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE", updated.ID)
	assert.Equal(t, "Jane Smith", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	_, err = svc.Update(ctx, "nobody", func(current models.Attendee) models.Attendee { return current })
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPatch(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	name := "Jane  Smith"
	phone := "+62 812 0000 1111"
	seat := ""
	updated, err := svc.Patch(ctx, "jane doe", Changes{Name: &name, Phone: &phone, Seat: &seat})
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE", updated.ID)
	assert.Equal(t, "Jane Smith", updated.Name)
	assert.Equal(t, "6281200001111", updated.Phone)
	assert.Equal(t, models.Placeholder, updated.Seat)

	confirmed := models.StatusConfirmed
	forced, err := svc.Patch(ctx, "jane doe", Changes{Status: &confirmed})
	require.NoError(t, err)
	assert.NotNil(t, forced.ConfirmedAt)

	sent := models.StatusSent
	back, err := svc.Patch(ctx, "jane doe", Changes{Status: &sent})
	require.NoError(t, err)
	assert.Nil(t, back.ConfirmedAt)

	empty := " "
	_, err = svc.Patch(ctx, "jane doe", Changes{Email: &empty})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bogus := models.Status("arrived")
	_, err = svc.Patch(ctx, "jane doe", Changes{Status: &bogus})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Patch(ctx, "john doe", Changes{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPatchCannotResetWhatsAppSent(t *testing.T) {
	svc, _ := newTestService(t, &recordingNotifier{})
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)
	_, err = svc.MarkSent(ctx, "jane doe")
	require.NoError(t, err)

	no := false
	_, err = svc.Patch(ctx, "jane doe", Changes{WhatsAppSent: &no})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "jane%20doe"))
	assert.ErrorIs(t, svc.Delete(ctx, "jane doe"), apperr.ErrNotFound)
	_, err = svc.Get(ctx, "jane doe")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNotify(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, notifier)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	a, err := svc.Notify(ctx, "jane doe", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, a.Status)
	assert.True(t, a.WhatsAppSent)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	assert.Equal(t, "6281234567890", call.destination)
	assert.Equal(t, "RSVP Invitation • Graduation", call.subject)
	assert.Contains(t, call.body, "JANE DOE")
	assert.Contains(t, call.body, "https://rsvp.example.com/invite/JANE%20DOE")

	_, err = svc.Confirm(ctx, "jane doe")
	require.NoError(t, err)
	again, err := svc.Notify(ctx, "jane doe", "custom text")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, again.Status)
	assert.Equal(t, "custom text", notifier.calls[1].body)
}

func TestNotifyFailureLeavesRecord(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("not on whatsapp")}
	svc, _ := newTestService(t, notifier)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	_, err = svc.Notify(ctx, "jane doe", "")
	assert.ErrorIs(t, err, apperr.ErrDependency)

	a, err := svc.Get(ctx, "jane doe")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, a.Status)
	assert.False(t, a.WhatsAppSent)
}

func TestNotifyWithoutSender(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("Jane Doe"))
	require.NoError(t, err)

	_, err = svc.Notify(ctx, "jane doe", "")
	assert.ErrorIs(t, err, apperr.ErrDependency)
}

func TestStoreFailureIsDependencyError(t *testing.T) {
	svc := NewService(brokenStore{storage.NewMemoryStore()}, nil, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Confirm(ctx, "jane doe")
	assert.ErrorIs(t, err, apperr.ErrDependency)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, err, errStoreDown)

	_, err = svc.Create(ctx, validRequest("Jane Doe"))
	assert.ErrorIs(t, err, apperr.ErrDependency)
}
