package piicrypt

import (
	"fmt"
	"strings"

	"github.com/hengadev/errsx"
)

// SensitiveFieldSpec declares, for one entity type, which fields are encrypted
// at rest and which of those additionally maintain a parallel search digest.
// It is the single source of truth consulted by both DocumentCodec and
// SearchQueryBuilder, so the write path and the search path can never drift
// apart.
//
// Field names are dotted paths; nested paths ("demographics.postcode") reach
// into nested objects. The codec recurses only into declared paths.
type SensitiveFieldSpec struct {
	// Entity is the record type this spec applies to, e.g. "patient".
	Entity string

	// EncryptedFields lists every field replaced by ciphertext at rest.
	EncryptedFields []string

	// SearchableFields lists the subset of EncryptedFields that also carry a
	// "<leaf>_hash" digest for indexed equality lookup. Fields that are never
	// searched (free-text names) stay out of this list.
	SearchableFields []string

	// Kinds assigns a normalization kind per field. Fields without an entry
	// default to KindText.
	Kinds map[string]FieldKind
}

// KindOf returns the normalization kind of a field.
func (s *SensitiveFieldSpec) KindOf(fieldName string) FieldKind {
	if k, ok := s.Kinds[fieldName]; ok {
		return k
	}
	return KindText
}

// IsSearchable reports whether the field maintains a search digest.
func (s *SensitiveFieldSpec) IsSearchable(fieldName string) bool {
	for _, f := range s.SearchableFields {
		if f == fieldName {
			return true
		}
	}
	return false
}

// Validate checks the spec for internal consistency: well-formed paths, no
// duplicates, no reserved suffixes, and every searchable field declared as
// encrypted.
func (s *SensitiveFieldSpec) Validate() error {
	errs := make(errsx.Map)

	if s.Entity == "" {
		errs.Set("entity", "entity name is required")
	}

	seen := make(map[string]bool, len(s.EncryptedFields))
	for _, f := range s.EncryptedFields {
		if !isValidFieldPath(f) {
			errs.Set("field "+f, "malformed field path")
			continue
		}
		if strings.HasSuffix(f, HashFieldSuffix) {
			errs.Set("field "+f, fmt.Sprintf("suffix %q is reserved for digest attributes", HashFieldSuffix))
		}
		if seen[f] {
			errs.Set("field "+f, "declared twice")
		}
		seen[f] = true
	}

	for _, f := range s.SearchableFields {
		if !seen[f] {
			errs.Set("searchable field "+f, "not declared in EncryptedFields")
		}
	}

	for f := range s.Kinds {
		if !seen[f] {
			errs.Set("kind for "+f, "not declared in EncryptedFields")
		}
	}

	if err := errs.AsError(); err != nil {
		return fmt.Errorf("%w: entity '%s': %w", ErrInvalidSpec, s.Entity, err)
	}
	return nil
}

// isValidFieldPath accepts dotted paths of identifier segments: letters,
// digits, underscores, each segment starting with a letter or underscore.
func isValidFieldPath(path string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if i > 0 {
				ok = ok || (r >= '0' && r <= '9')
			}
			if !ok {
				return false
			}
		}
	}
	return true
}

// PatientSpec returns the sensitive-field declaration for patient records.
// NHS number, MRN, and postcode are looked up by exact match and therefore
// carry digests; names and date of birth are encrypted only.
func PatientSpec() *SensitiveFieldSpec {
	return &SensitiveFieldSpec{
		Entity: "patient",
		EncryptedFields: []string{
			"nhs_number",
			"mrn",
			"first_name",
			"last_name",
			"demographics.date_of_birth",
			"demographics.postcode",
		},
		SearchableFields: []string{
			"nhs_number",
			"mrn",
			"demographics.postcode",
		},
		Kinds: map[string]FieldKind{
			"nhs_number":                 KindIdentifier,
			"mrn":                        KindIdentifier,
			"first_name":                 KindName,
			"last_name":                  KindName,
			"demographics.date_of_birth": KindDate,
			"demographics.postcode":      KindPostcode,
		},
	}
}

// EpisodeSpec returns the sensitive-field declaration for care episodes.
// Episodes carry the MRN for linkage back to the patient record.
func EpisodeSpec() *SensitiveFieldSpec {
	return &SensitiveFieldSpec{
		Entity:           "episode",
		EncryptedFields:  []string{"mrn"},
		SearchableFields: []string{"mrn"},
		Kinds: map[string]FieldKind{
			"mrn": KindIdentifier,
		},
	}
}

// TreatmentSpec returns the sensitive-field declaration for treatments.
// The operator name is free text: encrypted, never searched.
func TreatmentSpec() *SensitiveFieldSpec {
	return &SensitiveFieldSpec{
		Entity:          "treatment",
		EncryptedFields: []string{"operator_name"},
		Kinds: map[string]FieldKind{
			"operator_name": KindName,
		},
	}
}

// TumourSpec returns the sensitive-field declaration for tumour records.
func TumourSpec() *SensitiveFieldSpec {
	return &SensitiveFieldSpec{
		Entity:          "tumour",
		EncryptedFields: []string{"histology_notes"},
	}
}

// DefaultSpecs returns the spec table for every audited entity type, keyed by
// entity name.
func DefaultSpecs() map[string]*SensitiveFieldSpec {
	specs := map[string]*SensitiveFieldSpec{}
	for _, s := range []*SensitiveFieldSpec{
		PatientSpec(), EpisodeSpec(), TreatmentSpec(), TumourSpec(),
	} {
		specs[s.Entity] = s
	}
	return specs
}
