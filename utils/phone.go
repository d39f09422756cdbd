// utils/phone.go
package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone converts a free-form phone number into the E.164-ish form
// Twilio dials. Rules, in order:
//   - numbers already starting with "+" pass through unchanged
//   - everything else is reduced to its digits
//   - 10 digits are assumed US/Canada and get "+1"
//   - 11 digits starting with "1" get "+"
//   - any other digit string gets "+"
//
// Empty input (or input with no digits at all) is an error.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", errors.New("phone number is empty")
	}
	if strings.HasPrefix(phone, "+") {
		return phone, nil
	}

	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return "", fmt.Errorf("phone number %q contains no digits", raw)
	}

	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, nil
	default:
		return "+" + digits, nil
	}
}
