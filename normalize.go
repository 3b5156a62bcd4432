package piicrypt

import "strings"

// Normalizer transforms a raw value into its canonical form before a search
// digest is computed. The same normalizer runs on both the write path and the
// search path; mixing them silently breaks lookups.
type Normalizer func(string) string

// NormalizeDigits keeps ASCII digits only. Used for identifiers such as NHS
// numbers and MRNs, so "123 456 7890" and "1234567890" digest identically.
var NormalizeDigits Normalizer = func(s string) string {
	var digits strings.Builder
	digits.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// NormalizeUpper trims surrounding whitespace and uppercases. Used for names
// and postcodes.
var NormalizeUpper Normalizer = func(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeTrim trims surrounding whitespace only, preserving case.
var NormalizeTrim Normalizer = func(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeNone is the identity normalizer.
var NormalizeNone Normalizer = func(s string) string {
	return s
}

// FieldKind classifies a sensitive field and selects its normalizer.
type FieldKind int

const (
	// KindText is the default: trim only, no other canonicalization.
	KindText FieldKind = iota

	// KindIdentifier is a numeric identifier (NHS number, MRN): digits only.
	KindIdentifier

	// KindName is a person name: trim + uppercase.
	KindName

	// KindPostcode is a postal code: trim + uppercase.
	KindPostcode

	// KindDate is a date value: digits only, so "1970-01-02" and "19700102"
	// digest identically.
	KindDate
)

// String returns the kind name used in spec validation errors.
func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindIdentifier:
		return "identifier"
	case KindName:
		return "name"
	case KindPostcode:
		return "postcode"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Normalize applies the kind's canonicalization rule.
func (k FieldKind) Normalize(s string) string {
	switch k {
	case KindIdentifier, KindDate:
		return NormalizeDigits(s)
	case KindName, KindPostcode:
		return NormalizeUpper(s)
	default:
		return NormalizeTrim(s)
	}
}
