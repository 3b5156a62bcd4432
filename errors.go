package piicrypt

import (
	"errors"
	"fmt"
)

var (
	// Key lifecycle errors
	ErrKeyLoad                 = errors.New("key material unavailable")
	ErrSecretSourceUnavailable = errors.New("secret source unavailable")

	// Cryptographic operation errors
	ErrEncryption = errors.New("encryption failed")
	ErrDecryption = errors.New("decryption failed")

	// Input errors
	ErrValidation   = errors.New("validation failed")
	ErrUnknownField = errors.New("field not declared in sensitive field spec")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidSpec          = errors.New("invalid sensitive field spec")

	// Rotation errors
	ErrRotationIncomplete = errors.New("rotation completed with failures")
	ErrLedgerUnavailable  = errors.New("key ledger unavailable")
)

// NewNotStringError reports a declared sensitive field whose value is not a
// string. The value itself is never included in the message.
func NewNotStringError(fieldName string) error {
	return fmt.Errorf("%w: field '%s' must be a string", ErrValidation, fieldName)
}

// NewEmptyTermError reports a search term that normalized to nothing.
func NewEmptyTermError(fieldName string) error {
	return fmt.Errorf("%w: search term for '%s' is empty after normalization", ErrValidation, fieldName)
}

// IsKeyLoadError returns true if the error means key material could not be
// loaded. Fatal at startup: the process must refuse to run.
func IsKeyLoadError(err error) bool {
	return errors.Is(err, ErrKeyLoad) ||
		errors.Is(err, ErrSecretSourceUnavailable)
}

// IsOperationError returns true if the error represents a failure during an
// encryption or decryption operation.
func IsOperationError(err error) bool {
	return errors.Is(err, ErrEncryption) ||
		errors.Is(err, ErrDecryption)
}

// IsDecryptionError returns true for authentication-tag mismatches and
// malformed ciphertext. Callers must treat this as a data-integrity incident,
// never as an empty field.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryption)
}

// IsValidationError returns true if the error represents bad caller input that
// can be corrected and retried.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownField)
}

// IsConfigurationError returns true if the error represents a setup problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidSpec)
}
