// Package invite builds the invitation artefacts handed to attendees: the invite
// link, the QR codes and the default reminder message.
package invite

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"rsvp-checkin/internal/models"
)

const DefaultQRSize = 800

// Event describes the scheduled event attendees are invited to
type Event struct {
	Name       string
	Schedule   string
	Venue      string
	Address    string
	Gate       string
	LinkPrefix string
}

// Link returns the public invite URL for an attendee identifier
func (e Event) Link(id string) string {
	return strings.TrimRight(e.LinkPrefix, "/") + "/" + url.PathEscape(id)
}

// Payload returns the JSON document scanned at the entry point
func Payload(a *models.Attendee) ([]byte, error) {
	return json.Marshal(models.ScanPayload{
		InviteID: a.ID,
		Name:     a.Name,
		NPM:      a.NPM,
	})
}

// LinkQR renders the invite link as a PNG QR code
func (e Event) LinkQR(id string, size int) ([]byte, error) {
	return encodeQR(e.Link(id), size)
}

// PayloadQR renders the attendee scan payload as a PNG QR code
func PayloadQR(a *models.Attendee, size int) ([]byte, error) {
	payload, err := Payload(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return encodeQR(string(payload), size)
}

func encodeQR(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// Subject is the notification title
func (e Event) Subject() string {
	return "RSVP Invitation • " + e.Name
}

// Message composes the default reminder sent to an attendee
func (e Event) Message(a *models.Attendee, link string) string {
	lines := []string{
		fmt.Sprintf("Dear %s,", strings.ToUpper(a.Name)),
		"",
		fmt.Sprintf("This is a reminder for %s, held on:", e.Name),
		"",
		fmt.Sprintf("Schedule : %s", e.Schedule),
		fmt.Sprintf("Venue : %s", e.Venue),
	}
	if strings.TrimSpace(e.Address) != "" {
		lines = append(lines, fmt.Sprintf("Address : %s", e.Address))
	}
	if strings.TrimSpace(e.Gate) != "" {
		lines = append(lines, e.Gate)
	}

	lines = append(lines,
		"",
		"Please keep this message and have the QR code from the link below ready at the check point.",
		"",
	)
	if link != "" {
		lines = append(lines, "🔗 QR code & attendance confirmation: "+link)
	}
	lines = append(lines,
		"",
		"Thank you for your attention and attendance.",
		"",
		"Note: this RSVP is valid for registered attendees only.",
	)
	return strings.Join(lines, "\n")
}
