package piicrypt

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldCipher_RoundTrip(t *testing.T) {
	cipher, err := NewFieldCipher(newTestKeyMaterial(t, "a"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple", "1234567890"},
		{"empty", ""},
		{"spaces preserved", "123 456 7890"},
		{"unicode", "Zoë Müller"},
		{"long", strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := cipher.Encrypt(tt.plaintext)
			require.NoError(t, err)
			require.True(t, IsEncrypted(sealed))

			opened, err := cipher.Decrypt(sealed)
			require.NoError(t, err)
			require.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestFieldCipher_NonDeterministic(t *testing.T) {
	cipher, err := NewFieldCipher(newTestKeyMaterial(t, "a"))
	require.NoError(t, err)

	a, err := cipher.Encrypt("1234567890")
	require.NoError(t, err)
	b, err := cipher.Encrypt("1234567890")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestFieldCipher_TamperDetection(t *testing.T) {
	cipher, err := NewFieldCipher(newTestKeyMaterial(t, "a"))
	require.NoError(t, err)

	sealed, err := cipher.Encrypt("123 456 7890")
	require.NoError(t, err)

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, EncryptedValuePrefix))
	require.NoError(t, err)

	// Flipping any single byte of the payload must fail authentication,
	// never yield a different plaintext.
	for i := range payload {
		tampered := append([]byte(nil), payload...)
		tampered[i] ^= 0x01
		_, err := cipher.Decrypt(EncryptedValuePrefix + base64.StdEncoding.EncodeToString(tampered))
		require.ErrorIs(t, err, ErrDecryption, "byte %d", i)
	}
}

func TestFieldCipher_WrongKey(t *testing.T) {
	cipherA, err := NewFieldCipher(newTestKeyMaterial(t, "a"))
	require.NoError(t, err)
	cipherB, err := NewFieldCipher(newTestKeyMaterial(t, "b"))
	require.NoError(t, err)

	sealed, err := cipherA.Encrypt("1234567890")
	require.NoError(t, err)

	_, err = cipherB.Decrypt(sealed)
	require.ErrorIs(t, err, ErrDecryption)
	require.True(t, IsDecryptionError(err))
}

func TestFieldCipher_Malformed(t *testing.T) {
	cipher, err := NewFieldCipher(newTestKeyMaterial(t, "a"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"untagged", "1234567890"},
		{"bad base64", EncryptedValuePrefix + "not!base64!!"},
		{"too short", EncryptedValuePrefix + base64.StdEncoding.EncodeToString([]byte("tiny"))},
		{"empty", ""},
		{"tag only", EncryptedValuePrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cipher.Decrypt(tt.value)
			require.ErrorIs(t, err, ErrDecryption)
		})
	}
}

func TestIsEncrypted(t *testing.T) {
	require.True(t, IsEncrypted("ENC:abc"))
	require.False(t, IsEncrypted("1234567890"))
	require.False(t, IsEncrypted(""))
	require.False(t, IsEncrypted("enc:abc"))
}

func TestFieldCipher_ConcurrentUse(t *testing.T) {
	cipher, err := NewFieldCipher(newTestKeyMaterial(t, "a"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sealed, err := cipher.Encrypt("123 456 7890")
				if err != nil {
					t.Error(err)
					return
				}
				opened, err := cipher.Decrypt(sealed)
				if err != nil || opened != "123 456 7890" {
					t.Errorf("round trip failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
