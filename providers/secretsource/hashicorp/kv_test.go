package hashicorp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	piicrypt "github.com/pdsykes2512/surg-db-sub004"
)

func TestKVStore_StoragePath(t *testing.T) {
	store := &KVStore{}

	assert.Equal(t, "secret/data/audit/root-secret", store.StoragePath(piicrypt.RootSecretName))
	assert.Equal(t, "secret/data/audit/root-salt", store.StoragePath(piicrypt.RootSaltName))
}

func TestNewKVStore_NoAuthentication(t *testing.T) {
	t.Setenv("VAULT_ADDR", "https://vault.internal:8200")
	t.Setenv("VAULT_TOKEN", "")
	t.Setenv("VAULT_ROLE_ID", "")
	t.Setenv("VAULT_SECRET_ID", "")

	_, err := NewKVStore()
	require.ErrorIs(t, err, piicrypt.ErrInvalidConfiguration)
}
