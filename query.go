package piicrypt

import (
	"fmt"
	"strings"
)

// SearchQueryBuilder translates a user-entered plaintext search term into an
// equality filter on the corresponding digest attribute. It never talks to
// storage itself; the returned filter is handed to the external query engine,
// which is expected to keep an index on every "<field>_hash" attribute.
type SearchQueryBuilder struct {
	hasher *SearchHasher
	spec   *SensitiveFieldSpec
}

// NewSearchQueryBuilder builds a query builder over the same key material and
// field spec the codec writes with, so stored digests and search digests can
// never diverge.
func NewSearchQueryBuilder(km *KeyMaterial, spec *SensitiveFieldSpec) *SearchQueryBuilder {
	return &SearchQueryBuilder{
		hasher: NewSearchHasher(km, spec),
		spec:   spec,
	}
}

// BuildEqualityFilter normalizes and digests a search term and returns the
// filter {"<fieldName>_hash": digest}. The field must be declared searchable.
//
// Terms that cannot possibly match fail with ErrValidation instead of silently
// building a dead filter: an empty-after-normalization term, or an identifier
// term containing letters.
func (b *SearchQueryBuilder) BuildEqualityFilter(fieldName, rawSearchTerm string) (map[string]string, error) {
	if !b.spec.IsSearchable(fieldName) {
		return nil, fmt.Errorf("%w: '%s' has no search digest for entity '%s'",
			ErrUnknownField, fieldName, b.spec.Entity)
	}

	normalized := b.hasher.Normalize(fieldName, rawSearchTerm)
	if normalized == "" {
		return nil, NewEmptyTermError(fieldName)
	}

	switch b.spec.KindOf(fieldName) {
	case KindIdentifier, KindDate:
		if strings.ContainsFunc(rawSearchTerm, isASCIILetter) {
			return nil, fmt.Errorf("%w: search term for '%s' contains non-numeric characters",
				ErrValidation, fieldName)
		}
	}

	return map[string]string{
		hashPathFor(fieldName): b.hasher.Digest(fieldName, rawSearchTerm),
	}, nil
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
