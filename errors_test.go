package piicrypt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		classifier func(error) bool
		want       bool
	}{
		{"key load", fmt.Errorf("loading: %w", ErrKeyLoad), IsKeyLoadError, true},
		{"secret source counts as key load", fmt.Errorf("vault: %w", ErrSecretSourceUnavailable), IsKeyLoadError, true},
		{"decryption is not key load", ErrDecryption, IsKeyLoadError, false},
		{"encryption operation", fmt.Errorf("field 'mrn': %w", ErrEncryption), IsOperationError, true},
		{"decryption operation", ErrDecryption, IsOperationError, true},
		{"decryption", fmt.Errorf("field 'mrn': %w", ErrDecryption), IsDecryptionError, true},
		{"encryption is not decryption", ErrEncryption, IsDecryptionError, false},
		{"validation", NewEmptyTermError("nhs_number"), IsValidationError, true},
		{"not a string", NewNotStringError("mrn"), IsValidationError, true},
		{"unknown field counts as validation", ErrUnknownField, IsValidationError, true},
		{"configuration", fmt.Errorf("iterations: %w", ErrInvalidConfiguration), IsConfigurationError, true},
		{"bad spec counts as configuration", ErrInvalidSpec, IsConfigurationError, true},
		{"nil error", nil, IsValidationError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.classifier(tt.err))
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	err := NewNotStringError("demographics.date_of_birth")
	assert.Contains(t, err.Error(), "demographics.date_of_birth")

	err = NewEmptyTermError("nhs_number")
	assert.Contains(t, err.Error(), "nhs_number")
}
