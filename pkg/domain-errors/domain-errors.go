package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business-logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeAccessDenied Code = "access_denied"

	// Token protocol error codes. A token that cannot be split or decoded is a
	// protocol error; everything past decoding gets its own code so callers
	// can distinguish a forged signature from a stale token.
	CodeProtocol             Code = "protocol_error"
	CodeUnsupportedAlgorithm Code = "unsupported_algorithm"
	CodeInvalidSignature     Code = "invalid_signature"
	CodeExpired              Code = "token_expired"
	CodeNotYetValid          Code = "token_not_yet_valid"
	CodeMissingClaim         Code = "missing_claim"

	// Infrastructure error codes for the external collaborators.
	CodeCrypto   Code = "crypto_error"
	CodeRegistry Code = "registry_error"
	CodeStorage  Code = "storage_error"

	// Consent error codes.
	CodeMissingConsent Code = "missing_consent"
	CodeInvalidConsent Code = "invalid_consent"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
