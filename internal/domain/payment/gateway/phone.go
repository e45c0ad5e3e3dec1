package gateway

import (
	"strings"

	"cakery_api/pkg/apperr"
)

// NormalizePhone converts a Kenyan phone number to the msisdn shape the
// gateways require: 254-prefixed digits, no plus sign. Exact rules:
// leading "0" becomes "254", a leading "+" is stripped, a "254" prefix
// passes through; anything else is rejected.
func NormalizePhone(phone string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")

	switch {
	case strings.HasPrefix(p, "0"):
		return "254" + p[1:], nil
	case strings.HasPrefix(p, "+"):
		return p[1:], nil
	case strings.HasPrefix(p, "254"):
		return p, nil
	default:
		return "", &apperr.InvalidPhoneNumberError{Phone: phone}
	}
}
