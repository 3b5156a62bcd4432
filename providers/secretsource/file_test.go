package secretsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	piicrypt "github.com/pdsykes2512/surg-db-sub004"
)

func newTestFileSource(t *testing.T) *FileSource {
	t.Helper()
	dir := t.TempDir()
	return NewFileSource(
		filepath.Join(dir, "root-secret"),
		filepath.Join(dir, "root-salt"),
	)
}

func TestFileSource_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestFileSource(t)

	secret := []byte("correct horse battery staple etc")
	require.NoError(t, src.WriteSecret(ctx, piicrypt.RootSecretName, secret))

	got, err := src.ReadSecret(ctx, piicrypt.RootSecretName)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	info, err := os.Stat(src.secretPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileSource_CreatesParentDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := NewFileSource(
		filepath.Join(dir, "keys", "root-secret"),
		filepath.Join(dir, "keys", "root-salt"),
	)

	require.NoError(t, src.WriteSecret(ctx, piicrypt.RootSaltName, []byte("0123456789abcdef0123456789abcdef")))

	info, err := os.Stat(filepath.Join(dir, "keys"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestFileSource_RefusesOverwrite(t *testing.T) {
	ctx := context.Background()
	src := newTestFileSource(t)

	require.NoError(t, src.WriteSecret(ctx, piicrypt.RootSaltName, []byte("first salt value, sixteen bytes+")))

	err := src.WriteSecret(ctx, piicrypt.RootSaltName, []byte("second salt value"))
	require.ErrorIs(t, err, piicrypt.ErrSecretSourceUnavailable)

	got, err := src.ReadSecret(ctx, piicrypt.RootSaltName)
	require.NoError(t, err)
	assert.Equal(t, []byte("first salt value, sixteen bytes+"), got, "original contents must survive")
}

func TestFileSource_RejectsLoosePermissions(t *testing.T) {
	ctx := context.Background()
	src := newTestFileSource(t)

	require.NoError(t, os.WriteFile(src.secretPath, []byte("a secret anyone can read today!!"), 0o644))

	_, err := src.ReadSecret(ctx, piicrypt.RootSecretName)
	require.ErrorIs(t, err, piicrypt.ErrSecretSourceUnavailable)
	assert.NotContains(t, err.Error(), "anyone can read")
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := newTestFileSource(t).ReadSecret(context.Background(), piicrypt.RootSecretName)
	require.ErrorIs(t, err, piicrypt.ErrSecretSourceUnavailable)
}

func TestFileSource_UnknownName(t *testing.T) {
	src := newTestFileSource(t)

	_, err := src.ReadSecret(context.Background(), "session-token")
	require.ErrorIs(t, err, piicrypt.ErrSecretSourceUnavailable)

	err = src.WriteSecret(context.Background(), "session-token", []byte("x"))
	require.ErrorIs(t, err, piicrypt.ErrSecretSourceUnavailable)
}
