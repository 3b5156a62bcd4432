package piicrypt

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// fieldSaltContext namespaces the per-field salt derivation so the salts can
// never collide with other uses of the root salt.
const fieldSaltContext = "piicrypt-field-salt:"

// KeyMaterial holds the derived cipher key and the root salt the per-field
// hashing salts are derived from. It is immutable for the process lifetime:
// rotating the key means loading a new KeyMaterial and re-encrypting every
// record under it.
//
// KeyMaterial is never serialized and must never appear in logs or errors.
type KeyMaterial struct {
	cipherKey   [CipherKeyLength]byte
	rootSalt    []byte
	iterations  int
	fingerprint string
}

// KeyMaterialOption configures LoadKeyMaterial.
type KeyMaterialOption func(*keyMaterialConfig) error

type keyMaterialConfig struct {
	iterations int
}

// WithPBKDF2Iterations overrides the PBKDF2 iteration count. Values below
// MinPBKDF2Iterations are rejected.
func WithPBKDF2Iterations(n int) KeyMaterialOption {
	return func(cfg *keyMaterialConfig) error {
		if n < MinPBKDF2Iterations {
			return fmt.Errorf("%w: PBKDF2 iterations must be at least %d, got %d",
				ErrInvalidConfiguration, MinPBKDF2Iterations, n)
		}
		cfg.iterations = n
		return nil
	}
}

// LoadKeyMaterial reads the root secret and root salt from the source and
// derives the cipher key with PBKDF2-SHA256. It fails fast with ErrKeyLoad on
// a missing, unreadable, or too-short secret or salt; there is no fallback
// key under any circumstance.
func LoadKeyMaterial(ctx context.Context, src SecretSource, opts ...KeyMaterialOption) (*KeyMaterial, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: secret source is nil", ErrKeyLoad)
	}

	cfg := &keyMaterialConfig{iterations: DefaultPBKDF2Iterations}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	secret, err := src.ReadSecret(ctx, RootSecretName)
	if err != nil {
		return nil, fmt.Errorf("%w: reading root secret: %w", ErrKeyLoad, err)
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: root secret is below the minimum length of %d bytes",
			ErrKeyLoad, MinSecretLength)
	}

	salt, err := src.ReadSecret(ctx, RootSaltName)
	if err != nil {
		return nil, fmt.Errorf("%w: reading root salt: %w", ErrKeyLoad, err)
	}
	if len(salt) < MinSaltLength {
		return nil, fmt.Errorf("%w: root salt is below the minimum length of %d bytes",
			ErrKeyLoad, MinSaltLength)
	}

	km := &KeyMaterial{
		rootSalt:   append([]byte(nil), salt...),
		iterations: cfg.iterations,
	}
	derived := pbkdf2.Key(secret, salt, cfg.iterations, CipherKeyLength, sha256.New)
	copy(km.cipherKey[:], derived)
	for i := range derived {
		derived[i] = 0
	}
	km.fingerprint = computeFingerprint(km.cipherKey)

	return km, nil
}

// FieldSalt derives the hashing salt for a sensitive field. The derivation is
// deterministic (HMAC-SHA256 of the field name under the root salt), so the
// same field always gets the same salt and two fields never share one.
func (km *KeyMaterial) FieldSalt(fieldName string) []byte {
	mac := hmac.New(sha256.New, km.rootSalt)
	mac.Write([]byte(fieldSaltContext + fieldName))
	return mac.Sum(nil)
}

// Fingerprint returns a short non-reversible identifier of the derived cipher
// key, for ledger bookkeeping and operator display. It carries no key material.
func (km *KeyMaterial) Fingerprint() string {
	return km.fingerprint
}

// Iterations returns the PBKDF2 iteration count the key was derived with.
func (km *KeyMaterial) Iterations() int {
	return km.iterations
}

func computeFingerprint(key [CipherKeyLength]byte) string {
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte("piicrypt-fingerprint"))
	return hex.EncodeToString(mac.Sum(nil)[:8])
}
