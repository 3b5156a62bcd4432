package piicrypt

import "context"

// SecretSource reads and writes opaque secret bytes by name. Implementations
// live under providers/secretsource (protected files, HashiCorp Vault KV,
// AWS Secrets Manager).
//
// Secret values must be treated as opaque bytes and never logged.
type SecretSource interface {
	// ReadSecret returns the bytes of the named secret. A missing or unreadable
	// secret is an error, never an empty value.
	ReadSecret(ctx context.Context, name string) ([]byte, error)

	// WriteSecret persists the named secret. Used once at installation to
	// store the generated root salt; implementations must refuse to silently
	// overwrite an existing value.
	WriteSecret(ctx context.Context, name string, value []byte) error
}

// RecordStore is the storage-layer contract the Rotator drives during batch
// re-encryption. The storage engine itself is external to this package.
type RecordStore interface {
	// IDs lists the identifiers of every record of the given entity type.
	IDs(ctx context.Context, entity string) ([]string, error)

	// Update applies fn to the current version of a record as one atomic
	// read-modify-write. If fn returns an error the record is left untouched.
	// Concurrent readers must never observe a partially rewritten record.
	Update(ctx context.Context, entity, id string, fn func(Record) (Record, error)) error
}
