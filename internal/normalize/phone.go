package normalize

import "strings"

const (
	DefaultCountryCode      = "62"
	DefaultSubscriberPrefix = "8"

	trunkPrefix         = "0"
	internationalPrefix = "00"
)

// Phone normalizes phone numbers to a country-coded digit string without '+'.
type Phone struct {
	CountryCode      string
	SubscriberPrefix string
}

// DefaultPhone is the Indonesian configuration: 08xx, 8xx, 628xx and 00628xx
// all become 628xx.
var DefaultPhone = Phone{CountryCode: DefaultCountryCode, SubscriberPrefix: DefaultSubscriberPrefix}

// PhoneNumber normalizes raw with DefaultPhone.
func PhoneNumber(raw string) string {
	return DefaultPhone.Normalize(raw)
}

// Normalize strips everything but digits and rewrites local forms into
// international form. Numbers it cannot place are returned digit-only,
// without a fabricated country code.
func (p Phone) Normalize(raw string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}

	// 00 must be checked before the trunk prefix, it starts with 0 too
	if rest, ok := strings.CutPrefix(digits, internationalPrefix); ok {
		if p.hasCountryCode(rest) {
			return rest
		}
		if p.hasSubscriberPrefix(rest) {
			return p.CountryCode + rest
		}
		return rest
	}

	if rest, ok := strings.CutPrefix(digits, trunkPrefix); ok {
		return p.CountryCode + rest
	}
	if p.hasCountryCode(digits) {
		return digits
	}
	if p.hasSubscriberPrefix(digits) {
		return p.CountryCode + digits
	}
	return digits
}

func (p Phone) hasCountryCode(s string) bool {
	return p.CountryCode != "" && strings.HasPrefix(s, p.CountryCode)
}

func (p Phone) hasSubscriberPrefix(s string) bool {
	return p.SubscriberPrefix != "" && strings.HasPrefix(s, p.SubscriberPrefix)
}
