// Package piicrypt provides field-level encryption and searchable hashing for
// patient-identifying data in the surgical audit database.
//
// Patient identifiers (NHS number, medical record number, names, date of
// birth, postcode) are encrypted at rest with AES-256-GCM and, where exact-match
// search is required, accompanied by a deterministic salted digest stored in a
// parallel "<field>_hash" attribute. The digest allows the storage layer to run
// indexed equality queries without ever decrypting a collection.
//
// # Key Material
//
// A KeyMaterial value is constructed once at process startup from a root secret
// and a root salt, both read through a SecretSource (protected file, Vault KV,
// or AWS Secrets Manager). The cipher key is derived with PBKDF2-SHA256 and the
// per-field hashing salts are derived deterministically from the root salt, so
// no additional state needs to be stored:
//
//	src := secretsource.NewFileSource("/etc/audit/secret", "/etc/audit/salt")
//	km, err := piicrypt.LoadKeyMaterial(ctx, src)
//	if err != nil {
//	    log.Fatal(err) // never start with a default key
//	}
//
// # Encrypting Records
//
// A DocumentCodec applies the cipher and hasher across a whole record according
// to the static SensitiveFieldSpec for its entity type:
//
//	codec, _ := piicrypt.NewDocumentCodec(km)
//	spec := piicrypt.PatientSpec()
//
//	stored, err := codec.EncryptDocument(record, spec)   // before persisting
//	plain, err := codec.DecryptDocument(stored, spec)    // after retrieval
//
// Encryption is idempotent: values already carrying the "ENC:" tag are left
// untouched, so repeated writes and migrations cannot double-encrypt.
//
// # Searching
//
// A SearchQueryBuilder turns a user-entered search term into an equality filter
// against the hash attribute, using the same normalization as the codec:
//
//	qb := piicrypt.NewSearchQueryBuilder(km, spec)
//	filter, err := qb.BuildEqualityFilter("nhs_number", "123 456 7890")
//	// filter == map[string]string{"nhs_number_hash": "<64 hex chars>"}
//
// Only exact-match search after normalization is supported. The digest keeps no
// partial-match structure, so substring or fuzzy search would require a
// decrypt-and-scan outside this package.
//
// # Key Rotation
//
// Rotation constructs a second KeyMaterial and re-encrypts every record under
// it, one record at a time, through the Rotator. Each record is rewritten
// atomically by the RecordStore; failures are reported per record and never
// abort the remainder of a run. Runs and per-record failures are tracked in a
// SQLite ledger (internal/keyledger).
package piicrypt
