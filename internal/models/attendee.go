package models

import "time"

// Attendee represents a registered event attendee
type Attendee struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Program      string     `json:"program"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	NPM          string     `json:"npm"`
	Seat         string     `json:"seat"`
	Status       Status     `json:"status"`
	WhatsAppSent bool       `json:"whatsappSent"`
	ConfirmedAt  *time.Time `json:"confirmedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Status represents the check-in lifecycle state
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusConfirmed Status = "confirmed"
)

// Valid reports whether s is one of the three lifecycle states
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusConfirmed:
		return true
	}
	return false
}

// Placeholder stored for optional text attributes left empty
const Placeholder = "-"

// ScanPayload is the structured content embedded in an attendee's QR code
type ScanPayload struct {
	InviteID string `json:"inviteId"`
	Name     string `json:"name,omitempty"`
	NPM      string `json:"npm,omitempty"`
}
