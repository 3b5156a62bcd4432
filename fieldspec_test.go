package piicrypt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultSpecs_Valid(t *testing.T) {
	specs := DefaultSpecs()
	require.Len(t, specs, 4)
	for entity, spec := range specs {
		require.NoError(t, spec.Validate(), entity)
		require.Equal(t, entity, spec.Entity)
	}
}

func TestSensitiveFieldSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		spec SensitiveFieldSpec
	}{
		{
			name: "missing entity",
			spec: SensitiveFieldSpec{EncryptedFields: []string{"nhs_number"}},
		},
		{
			name: "searchable but not encrypted",
			spec: SensitiveFieldSpec{
				Entity:           "patient",
				EncryptedFields:  []string{"nhs_number"},
				SearchableFields: []string{"mrn"},
			},
		},
		{
			name: "duplicate field",
			spec: SensitiveFieldSpec{
				Entity:          "patient",
				EncryptedFields: []string{"nhs_number", "nhs_number"},
			},
		},
		{
			name: "reserved hash suffix",
			spec: SensitiveFieldSpec{
				Entity:          "patient",
				EncryptedFields: []string{"nhs_number_hash"},
			},
		},
		{
			name: "malformed path",
			spec: SensitiveFieldSpec{
				Entity:          "patient",
				EncryptedFields: []string{"demographics..postcode"},
			},
		},
		{
			name: "kind for undeclared field",
			spec: SensitiveFieldSpec{
				Entity:          "patient",
				EncryptedFields: []string{"nhs_number"},
				Kinds:           map[string]FieldKind{"mrn": KindIdentifier},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			require.ErrorIs(t, err, ErrInvalidSpec)
			require.True(t, IsConfigurationError(err))
		})
	}
}

func TestSensitiveFieldSpec_KindOf(t *testing.T) {
	spec := PatientSpec()
	require.Equal(t, KindIdentifier, spec.KindOf("nhs_number"))
	require.Equal(t, KindPostcode, spec.KindOf("demographics.postcode"))
	require.Equal(t, KindText, spec.KindOf("unregistered"))
}

func TestSensitiveFieldSpec_IsSearchable(t *testing.T) {
	spec := PatientSpec()
	require.True(t, spec.IsSearchable("nhs_number"))
	require.False(t, spec.IsSearchable("first_name"))
	require.False(t, spec.IsSearchable("unregistered"))
}

func TestIsValidFieldPath(t *testing.T) {
	valid := []string{"nhs_number", "demographics.postcode", "a.b.c", "_private"}
	for _, p := range valid {
		require.True(t, isValidFieldPath(p), p)
	}

	invalid := []string{"", ".", "a.", ".a", "a..b", "1st", "a-b", "a b"}
	for _, p := range invalid {
		require.False(t, isValidFieldPath(p), p)
	}
}
