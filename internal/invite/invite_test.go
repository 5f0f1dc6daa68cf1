package invite

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/normalize"
)

var event = Event{
	Name:       "Wisuda Fakultas Teknik",
	Schedule:   "Sabtu, 20 Juni 2025 • 08:00",
	Venue:      "Auditorium",
	Gate:       "Gate B",
	LinkPrefix: "https://rsvp.example.com/invite/",
}

func TestLinkRoundTrip(t *testing.T) {
	for _, id := range []string{"JANE DOE", "JOHN DOE-2", "A/B 100%", "SITI 'AMINAH'"} {
		link := event.Link(id)
		require.True(t, strings.HasPrefix(link, "https://rsvp.example.com/invite/"), link)

		u, err := url.Parse(link)
		require.NoError(t, err)
		last := u.EscapedPath()[len("/invite/"):]
		assert.Equal(t, id, normalize.AttendeeID(last), link)
	}
	assert.Equal(t, "https://rsvp.example.com/invite/JANE%20DOE", event.Link("JANE DOE"))
}

func TestPayload(t *testing.T) {
	raw, err := Payload(&models.Attendee{ID: "JANE DOE", Name: "Jane Doe", NPM: "2110001", Phone: "628"})
	require.NoError(t, err)

	var p models.ScanPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, models.ScanPayload{InviteID: "JANE DOE", Name: "Jane Doe", NPM: "2110001"}, p)
	assert.NotContains(t, string(raw), "628")
}

func TestQRCodes(t *testing.T) {
	img, err := event.LinkQR("JANE DOE", 0)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, decoded.Bounds().Dx())

	img, err = PayloadQR(&models.Attendee{ID: "JANE DOE", Name: "Jane Doe"}, 256)
	require.NoError(t, err)
	decoded, err = png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 256, decoded.Bounds().Dx())
}

func TestMessage(t *testing.T) {
	a := &models.Attendee{ID: "JANE DOE", Name: "Jane Doe"}
	msg := event.Message(a, event.Link(a.ID))

	assert.True(t, strings.HasPrefix(msg, "Dear JANE DOE,"))
	assert.Contains(t, msg, "Schedule : Sabtu, 20 Juni 2025 • 08:00")
	assert.Contains(t, msg, "Venue : Auditorium")
	assert.Contains(t, msg, "Gate B")
	assert.NotContains(t, msg, "Address :")
	assert.Contains(t, msg, "https://rsvp.example.com/invite/JANE%20DOE")

	assert.Equal(t, "RSVP Invitation • Wisuda Fakultas Teknik", event.Subject())
}
