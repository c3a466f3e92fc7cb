package errors

import "fmt"

// MalformedPayloadError indicates a webhook body that matches neither of the
// known provider wire shapes, or is missing a required field.
type MalformedPayloadError struct {
	Reason string
}

func NewMalformedPayloadError(reason string) *MalformedPayloadError {
	return &MalformedPayloadError{Reason: reason}
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed webhook payload: %s", e.Reason)
}

// ProvisioningError indicates the account could not be created or resolved.
// Deliveries failing with it must be answered 5xx so the provider retries.
type ProvisioningError struct {
	Email string
	Err   error
}

func NewProvisioningError(email string, err error) *ProvisioningError {
	return &ProvisioningError{Email: email, Err: err}
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("account provisioning failed for %s: %v", e.Email, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}
