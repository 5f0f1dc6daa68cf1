package importer

import (
	"strings"

	"rsvp-checkin/internal/attendee"
	"rsvp-checkin/internal/models"
	"rsvp-checkin/internal/normalize"
)

type field int

const (
	fieldName field = iota
	fieldPhone
	fieldEmail
	fieldProgram
	fieldNPM
	fieldSeat
)

// fieldRule resolves one attendee field: the first non-empty candidate column
// wins, otherwise the first cell accepted by fallback (if any).
type fieldRule struct {
	field      field
	candidates []string
	fallback   func(value string) bool
}

var rules = []fieldRule{
	{
		field:      fieldName,
		candidates: []string{"name", "nama", "full_name", "nama_lengkap", "peserta", "guest"},
		fallback:   func(v string) bool { return v != "" },
	},
	{
		field: fieldPhone,
		candidates: []string{
			"phone", "hp", "nomor", "nomor_hp", "nomor_hp_wa_aktif",
			"telepon", "nohp", "no_telp", "wa", "whatsapp",
		},
		fallback: normalize.HasDigit,
	},
	{
		field:      fieldEmail,
		candidates: []string{"email", "email_address", "alamat_email"},
		fallback:   func(v string) bool { return strings.Contains(v, "@") },
	},
	{
		field:      fieldProgram,
		candidates: []string{"program", "program_studi", "prodi", "prodi_studi"},
	},
	{
		field:      fieldNPM,
		candidates: []string{"npm", "nomor_pokok_mahasiswa", "nomor_pokok", "nomor_induk"},
	},
	{
		field:      fieldSeat,
		candidates: []string{"seat", "kursi"},
	},
}

func (r fieldRule) resolve(row normalizedRow) string {
	for _, key := range r.candidates {
		if v := row.byKey[key]; v != "" {
			return v
		}
	}
	if r.fallback == nil {
		return ""
	}
	for _, c := range row.cells {
		if r.fallback(c.Value) {
			return c.Value
		}
	}
	return ""
}

func resolve(row normalizedRow, defaults Defaults) attendee.CreateRequest {
	values := make(map[field]string, len(rules))
	for _, rule := range rules {
		values[rule.field] = rule.resolve(row)
	}

	req := attendee.CreateRequest{
		Name:    normalize.CollapseSpaces(values[fieldName]),
		Phone:   values[fieldPhone],
		Email:   values[fieldEmail],
		Program: values[fieldProgram],
		NPM:     values[fieldNPM],
		Seat:    truncate(values[fieldSeat], maxSeatLength),
	}
	if req.Program == "" {
		req.Program = defaults.Program
	}
	if req.NPM == "" {
		req.NPM = models.Placeholder
	}
	if req.Seat == "" {
		req.Seat = defaults.Seat
	}
	return req
}
