package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttendeeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" jane   doe ", "JANE DOE"},
		{"Jane\tDoe\n", "JANE DOE"},
		{"JANE%20DOE", "JANE DOE"},
		{"jane%20%20doe", "JANE DOE"},
		{"john doe-2", "JOHN DOE-2"},
		{"100%", "100%"},
		{"bad %zz escape", "BAD %ZZ ESCAPE"},
		{"jos%C3%A9", "JOSÉ"},
		{"jos%C3", "JOS%C3"},
		{"%FF%FEname", "%FF%FENAME"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AttendeeID(tt.in), "input %q", tt.in)
	}
}

func TestAttendeeIDIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "jane doe", "  Jane   Doe  ", "JANE%20DOE", "%2541", "%252520x",
		"100%", "%zz", "a%", "Ünïcödé  ñame", "tab\there", "x%2", "MIXED case%41", "jos%C3",
	}
	for _, in := range inputs {
		once := AttendeeID(in)
		assert.Equal(t, once, AttendeeID(once), "input %q", in)
	}
}

func TestPhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"081234567890", "6281234567890"},
		{"6281234567890", "6281234567890"},
		{"+62 812-3456-7890", "6281234567890"},
		{"81234567890", "6281234567890"},
		{"008123456", "628123456"},
		{"006281234", "6281234"},
		{"00441234", "441234"},
		{"441234567", "441234567"},
		{"(0812) 345", "62812345"},
		{"", ""},
		{"no digits", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PhoneNumber(tt.in), "input %q", tt.in)
	}
}

func TestPhoneCustomCountry(t *testing.T) {
	il := Phone{CountryCode: "972", SubscriberPrefix: "5"}
	assert.Equal(t, "972501234567", il.Normalize("050-123-4567"))
	assert.Equal(t, "972501234567", il.Normalize("501234567"))
	assert.Equal(t, "972501234567", il.Normalize("00972501234567"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "0812", Digits("+0(8)1-2"))
	assert.True(t, HasDigit("abc1"))
	assert.False(t, HasDigit("abc"))
}
