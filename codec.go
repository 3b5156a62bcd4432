package piicrypt

import (
	"errors"
	"fmt"

	"github.com/hengadev/errsx"
)

// DocumentCodec applies FieldCipher and SearchHasher across a whole record
// according to its SensitiveFieldSpec. The codec never mutates its input; it
// returns a transformed copy, so a failed call leaves the caller's record
// untouched and nothing half-encrypted is ever handed to storage.
type DocumentCodec struct {
	km     *KeyMaterial
	cipher *FieldCipher
}

// NewDocumentCodec builds a codec over the given key material.
func NewDocumentCodec(km *KeyMaterial) (*DocumentCodec, error) {
	cipher, err := NewFieldCipher(km)
	if err != nil {
		return nil, err
	}
	return &DocumentCodec{km: km, cipher: cipher}, nil
}

// EncryptDocument replaces every declared plaintext field with ciphertext and
// attaches a "<field>_hash" digest beside each searchable field. Absent fields
// pass through unchanged. Values already carrying the "ENC:" tag are left
// untouched, together with their existing digests, so a second pass over an
// encrypted record is a no-op.
//
// On any per-field failure the partially transformed copy is discarded and
// only the aggregated error is returned; the caller's record is untouched.
func (c *DocumentCodec) EncryptDocument(rec Record, spec *SensitiveFieldSpec) (Record, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: spec is nil", ErrInvalidSpec)
	}
	if rec == nil {
		return nil, nil
	}

	hasher := NewSearchHasher(c.km, spec)
	out := cloneRecord(rec)
	errs := make(errsx.Map)

	for _, field := range spec.EncryptedFields {
		v, present := getPath(out, field)
		if !present {
			continue
		}
		plaintext, ok := v.(string)
		if !ok {
			errs.Set(field, NewNotStringError(field))
			continue
		}
		if IsEncrypted(plaintext) {
			continue
		}

		ciphertext, err := c.cipher.Encrypt(plaintext)
		if err != nil {
			errs.Set(field, err)
			continue
		}
		setPath(out, field, ciphertext)

		if spec.IsSearchable(field) {
			setPath(out, hashPathFor(field), hasher.Digest(field, plaintext))
		}
	}

	if err := errs.AsError(); err != nil {
		return nil, wrapFieldErrors("encrypting", spec.Entity, errs, ErrEncryption)
	}
	return out, nil
}

// DecryptDocument restores every declared ciphertext field to plaintext and
// strips the digest attributes, which carry no reversible information. Values
// without the "ENC:" tag pass through unchanged (plaintext written before
// encryption was enabled). A tag mismatch on any field fails the whole call
// with ErrDecryption: the caller must treat that as a data-integrity incident,
// never as an empty record.
func (c *DocumentCodec) DecryptDocument(rec Record, spec *SensitiveFieldSpec) (Record, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: spec is nil", ErrInvalidSpec)
	}
	if rec == nil {
		return nil, nil
	}

	out := cloneRecord(rec)
	errs := make(errsx.Map)

	for _, field := range spec.EncryptedFields {
		if spec.IsSearchable(field) {
			deletePath(out, hashPathFor(field))
		}

		v, present := getPath(out, field)
		if !present {
			continue
		}
		stored, ok := v.(string)
		if !ok {
			errs.Set(field, NewNotStringError(field))
			continue
		}
		if !IsEncrypted(stored) {
			continue
		}

		plaintext, err := c.cipher.Decrypt(stored)
		if err != nil {
			errs.Set(field, err)
			continue
		}
		setPath(out, field, plaintext)
	}

	if err := errs.AsError(); err != nil {
		return nil, wrapFieldErrors("decrypting", spec.Entity, errs, ErrDecryption)
	}
	return out, nil
}

// wrapFieldErrors classifies an aggregated per-field error map under one
// sentinel so callers can dispatch with errors.Is. Any operational failure
// outranks validation failures: a record with both a bad value and a failed
// decryption is a data-integrity incident first.
func wrapFieldErrors(verb, entity string, errs errsx.Map, operational error) error {
	sentinel := ErrValidation
	for _, ferr := range errs {
		if errors.Is(ferr, operational) {
			sentinel = operational
			break
		}
	}
	return fmt.Errorf("%w: %s %s record: %s", sentinel, verb, entity, errs.AsError())
}

// ReencryptDocument decrypts a record under the old codec's key and encrypts
// it under the new one, recomputing every digest with the new salts. The
// storage layer must apply the result as one atomic write; a record persisted
// half-rotated would be undecryptable under either key.
func ReencryptDocument(rec Record, oldCodec, newCodec *DocumentCodec, spec *SensitiveFieldSpec) (Record, error) {
	plain, err := oldCodec.DecryptDocument(rec, spec)
	if err != nil {
		return nil, err
	}
	return newCodec.EncryptDocument(plain, spec)
}
