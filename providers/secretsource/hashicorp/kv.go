// Package hashicorp implements a piicrypt.SecretSource backed by HashiCorp
// Vault's KV v2 secrets engine.
package hashicorp

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"github.com/hashicorp/vault/api"

	piicrypt "github.com/pdsykes2512/surg-db-sub004"
)

// kvPathTemplate is the KV v2 path for a named secret. The "/data/" segment
// is required by the KV v2 API.
const kvPathTemplate = "secret/data/audit/%s"

// KVStore stores the root secret and root salt in Vault KV v2, giving
// versioned storage with Vault's audit logging.
type KVStore struct {
	client *api.Client
}

// NewKVStore creates a KVStore using environment-driven configuration:
//
//   - VAULT_ADDR: Vault server address (required)
//   - VAULT_NAMESPACE: namespace for HCP Vault (optional)
//   - VAULT_TOKEN: direct token authentication
//   - VAULT_ROLE_ID / VAULT_SECRET_ID: AppRole authentication
//
// Token authentication takes priority over AppRole. The KV v2 engine must be
// enabled at "secret/" before use.
func NewKVStore() (*KVStore, error) {
	client, err := createVaultClient()
	if err != nil {
		return nil, err
	}
	return &KVStore{client: client}, nil
}

// StoragePath returns the KV v2 path for a secret name.
func (k *KVStore) StoragePath(name string) string {
	return fmt.Sprintf(kvPathTemplate, name)
}

// ReadSecret reads a secret's opaque bytes from Vault.
func (k *KVStore) ReadSecret(ctx context.Context, name string) ([]byte, error) {
	path := k.StoragePath(name)

	secret, err := k.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading from Vault KV: %w",
			piicrypt.ErrSecretSourceUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: secret '%s' not found",
			piicrypt.ErrSecretSourceUnavailable, name)
	}

	// KV v2 wraps the stored fields in a "data" key.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected KV v2 response shape for '%s'",
			piicrypt.ErrSecretSourceUnavailable, name)
	}
	encoded, ok := data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: secret '%s' has no value field",
			piicrypt.ErrSecretSourceUnavailable, name)
	}

	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: secret '%s' is not valid base64",
			piicrypt.ErrSecretSourceUnavailable, name)
	}
	return value, nil
}

// WriteSecret stores a secret in Vault. KV v2 keeps version history, so an
// accidental overwrite remains recoverable on the Vault side; the install
// tooling still checks for an existing value before writing the root salt.
func (k *KVStore) WriteSecret(ctx context.Context, name string, value []byte) error {
	path := k.StoragePath(name)

	data := map[string]interface{}{
		"data": map[string]interface{}{
			"value": base64.StdEncoding.EncodeToString(value),
		},
	}
	if _, err := k.client.Logical().WriteWithContext(ctx, path, data); err != nil {
		return fmt.Errorf("%w: writing to Vault KV: %w",
			piicrypt.ErrSecretSourceUnavailable, err)
	}
	return nil
}

// createVaultClient builds an authenticated Vault client from the
// environment. Token auth is tried first, then AppRole.
func createVaultClient() (*api.Client, error) {
	config := api.DefaultConfig()

	if addr := os.Getenv("VAULT_ADDR"); addr != "" {
		config.Address = addr
	}
	if config.Address == "" {
		return nil, fmt.Errorf("%w: VAULT_ADDR environment variable is required",
			piicrypt.ErrInvalidConfiguration)
	}

	config.HttpClient.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: creating Vault client: %w",
			piicrypt.ErrSecretSourceUnavailable, err)
	}

	if namespace := os.Getenv("VAULT_NAMESPACE"); namespace != "" {
		client.SetNamespace(namespace)
	}

	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		client.SetToken(token)
		return client, nil
	}

	roleID := os.Getenv("VAULT_ROLE_ID")
	secretID := os.Getenv("VAULT_SECRET_ID")
	if roleID != "" && secretID != "" {
		resp, err := client.Logical().Write("auth/approle/login", map[string]interface{}{
			"role_id":   roleID,
			"secret_id": secretID,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: AppRole login failed: %w",
				piicrypt.ErrSecretSourceUnavailable, err)
		}
		if resp == nil || resp.Auth == nil {
			return nil, fmt.Errorf("%w: no auth info returned from AppRole login",
				piicrypt.ErrSecretSourceUnavailable)
		}
		client.SetToken(resp.Auth.ClientToken)
		return client, nil
	}

	return nil, fmt.Errorf("%w: no Vault authentication configured (set VAULT_TOKEN or VAULT_ROLE_ID+VAULT_SECRET_ID)",
		piicrypt.ErrInvalidConfiguration)
}
