// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizeE164 formats a phone number to E.164. WhatsApp delivers numbers
// without a leading plus, so a bare digit string is retried with one.
// If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := parse(trimmed)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// CountryISO returns the ISO 3166-1 alpha-2 region for a phone number,
// or "" when it cannot be determined.
func CountryISO(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	number, err := parse(trimmed)
	if err != nil {
		return ""
	}

	return phonenumbers.GetRegionCodeForNumber(number)
}

func parse(value string) (*phonenumbers.PhoneNumber, error) {
	number, err := phonenumbers.Parse(value, "")
	if err == nil {
		return number, nil
	}

	if !strings.HasPrefix(value, "+") {
		return phonenumbers.Parse("+"+value, "")
	}

	return nil, err
}
