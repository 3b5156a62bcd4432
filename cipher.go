package piicrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// FieldCipher encrypts and decrypts single scalar values with AES-256-GCM.
// It holds only the read-only AEAD built from the KeyMaterial cipher key, so
// it is safe for unbounded concurrent use.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a FieldCipher from the given key material.
func NewFieldCipher(km *KeyMaterial) (*FieldCipher, error) {
	if km == nil {
		return nil, fmt.Errorf("%w: key material is nil", ErrInvalidConfiguration)
	}
	block, err := aes.NewCipher(km.cipherKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: creating AES cipher: %w", ErrEncryption, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: creating GCM: %w", ErrEncryption, err)
	}
	return &FieldCipher{aead: aead}, nil
}

// IsEncrypted reports whether a stored value carries the ciphertext tag.
// DocumentCodec uses this to keep encryption idempotent across repeated
// writes and migrations.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedValuePrefix)
}

// Encrypt encrypts a plaintext value and returns the tagged, encoded string
// "ENC:" + base64(nonce + ciphertext + tag). A fresh random nonce is generated
// on every call, so two encryptions of the same plaintext never match.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %w", ErrEncryption, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedValuePrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt verifies and decrypts a value produced by Encrypt. Any tampering,
// truncation, or wrong-key decryption fails with ErrDecryption; no partial
// plaintext is ever released. The offending value is never echoed into the
// error.
func (c *FieldCipher) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return "", fmt.Errorf("%w: value does not carry the %q tag", ErrDecryption, EncryptedValuePrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedValuePrefix))
	if err != nil {
		return "", fmt.Errorf("%w: malformed encoding", ErrDecryption)
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return string(plaintext), nil
}
