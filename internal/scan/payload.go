// Package scan turns raw check-in scanner input into confirmations.
//
// A handheld scanner behaves like a keyboard: it types the code and finishes
// with a carriage return or line feed. Codes are either a bare attendee
// identifier or the JSON payload embedded in the attendee QR.
package scan

import (
	"encoding/json"
	"errors"
	"strings"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/models"
)

var errMissingInviteID = errors.New("inviteId is missing")

// ParsePayload decodes one scanned code
func ParsePayload(raw string) (models.ScanPayload, error) {
	const op = "parse scan"

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.ScanPayload{}, apperr.Validation(op, "scan is empty")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return models.ScanPayload{InviteID: trimmed}, nil
	}

	var payload models.ScanPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return models.ScanPayload{}, apperr.Malformed(op, err)
	}
	if strings.TrimSpace(payload.InviteID) == "" {
		return models.ScanPayload{}, apperr.Malformed(op, errMissingInviteID)
	}
	return payload, nil
}
