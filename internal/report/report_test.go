package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvp-checkin/internal/models"
)

func TestBuild(t *testing.T) {
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	confirmedAt := created.Add(3 * time.Hour)

	attendees := []models.Attendee{
		{ID: "ANA", Name: "Ana", Program: "Teknik Sipil", Status: models.StatusConfirmed, ConfirmedAt: &confirmedAt, UpdatedAt: confirmedAt},
		{ID: "BUDI", Name: "Budi", Program: "Informatika", Status: models.StatusSent, UpdatedAt: created.Add(time.Hour)},
		{ID: "CITRA", Name: "Citra", Program: "", Status: models.StatusDraft, UpdatedAt: created},
	}

	s := Build(attendees, created)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Sent)
	assert.Equal(t, 1, s.Confirmed)
	assert.Equal(t, 33, s.ResponseRate)
	assert.Equal(t, []Program{
		{Program: "Informatika", Total: 1},
		{Program: "Lainnya", Total: 1},
		{Program: "Teknik Sipil", Total: 1, Confirmed: 1},
	}, s.Programs)

	require.Len(t, s.Rows, 3)
	assert.Equal(t, 1, s.Rows[0].No)
	assert.Equal(t, confirmedAt, s.Rows[0].CheckedIn)
	assert.Equal(t, created.Add(time.Hour), s.Rows[1].CheckedIn)
	assert.Equal(t, "CITRA", s.Rows[2].ID)
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil, time.Now())
	assert.Zero(t, s.Total)
	assert.Zero(t, s.ResponseRate)
	assert.Empty(t, s.Programs)
	assert.NotNil(t, s.Rows)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestWriteCSV(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	s := Build([]models.Attendee{
		{ID: "ANA", Name: "Ana, S.T.", Program: "Sipil", NPM: "211", Status: models.StatusConfirmed, ConfirmedAt: &at},
		{ID: "BUDI", Name: "Budi", Program: "Sipil", Status: models.StatusSent},
	}, at)

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "No,ID,Name,Program,NPM,Status,Present,Checked in", lines[0])
	assert.Equal(t, `1,ANA,"Ana, S.T.",Sipil,211,confirmed,yes,2025-06-01 12:30:00`, lines[1])
	assert.Equal(t, "2,BUDI,Budi,Sipil,-,sent,no,-", lines[2])
}
