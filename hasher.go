package piicrypt

import (
	"crypto/sha256"
	"encoding/hex"
)

// SearchHasher produces deterministic, field-namespaced digests of normalized
// plaintext values, used purely for indexed equality lookup. It is stateless
// beyond the immutable KeyMaterial and spec, so it is safe for concurrent use.
type SearchHasher struct {
	km   *KeyMaterial
	spec *SensitiveFieldSpec
}

// NewSearchHasher builds a hasher bound to one entity's field spec.
func NewSearchHasher(km *KeyMaterial, spec *SensitiveFieldSpec) *SearchHasher {
	return &SearchHasher{km: km, spec: spec}
}

// Normalize canonicalizes a raw value according to the field's declared kind.
// The same rule runs whether the value is being hashed for storage or a search
// term is being hashed for lookup.
func (h *SearchHasher) Normalize(fieldName, raw string) string {
	return h.spec.KindOf(fieldName).Normalize(raw)
}

// Digest returns hex(SHA-256(fieldSalt + normalized)), 64 hex characters.
// The per-field salt guarantees the same plaintext digests differently under
// two field namespaces, so digests cannot be correlated across fields.
func (h *SearchHasher) Digest(fieldName, raw string) string {
	salt := h.km.FieldSalt(fieldName)
	normalized := h.Normalize(fieldName, raw)
	sum := sha256.Sum256(append(salt, normalized...))
	return hex.EncodeToString(sum[:])
}
