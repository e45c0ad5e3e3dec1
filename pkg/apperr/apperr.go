// Package apperr defines the typed error taxonomy shared by all domain
// services. Handlers translate these into HTTP responses; services never
// return raw gorm or transport errors across the module boundary.
package apperr

import "fmt"

// ValidationError reports malformed or missing caller input. Maps to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent referenced entity. Maps to 404.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// PermissionError reports an ownership or role mismatch. Maps to 403.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// PaymentGatewayError wraps a transport failure or non-2xx reply from an
// external payment gateway. Maps to 400; order state is never mutated when
// one of these is returned.
type PaymentGatewayError struct {
	Gateway string
	Err     error
}

func (e *PaymentGatewayError) Error() string {
	return fmt.Sprintf("%s gateway error: %v", e.Gateway, e.Err)
}

func (e *PaymentGatewayError) Unwrap() error {
	return e.Err
}

// InvalidPhoneNumberError reports a phone number that cannot be normalized
// to the gateway's msisdn format. Treated as a validation failure (400).
type InvalidPhoneNumberError struct {
	Phone string
}

func (e *InvalidPhoneNumberError) Error() string {
	return fmt.Sprintf("invalid Kenyan phone number format: %q", e.Phone)
}
