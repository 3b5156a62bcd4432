package aws

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	piicrypt "github.com/pdsykes2512/surg-db-sub004"
)

// fakeSecretsManager records secrets in memory and mimics the create/exists
// behavior of the real service.
type fakeSecretsManager struct {
	secrets map[string]string
}

func newFakeSecretsManager() *fakeSecretsManager {
	return &fakeSecretsManager{secrets: make(map[string]string)}
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	value, ok := f.secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(value)}, nil
}

func (f *fakeSecretsManager) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	name := aws.ToString(params.Name)
	if _, ok := f.secrets[name]; ok {
		return nil, &types.ResourceExistsException{}
	}
	f.secrets[name] = aws.ToString(params.SecretString)
	return &secretsmanager.CreateSecretOutput{}, nil
}

func (f *fakeSecretsManager) PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.secrets[aws.ToString(params.SecretId)] = aws.ToString(params.SecretString)
	return &secretsmanager.PutSecretValueOutput{}, nil
}

func TestSecretsManagerStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSecretsManager()
	store := NewSecretsManagerStoreWithClient(fake)

	secret := []byte{0x00, 0x01, 0xfe, 0xff, 0x10, 0x20, 0x30, 0x40}
	require.NoError(t, store.WriteSecret(ctx, piicrypt.RootSecretName, secret))

	got, err := store.ReadSecret(ctx, piicrypt.RootSecretName)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	stored, ok := fake.secrets["audit/"+piicrypt.RootSecretName]
	require.True(t, ok)
	assert.Equal(t, base64.StdEncoding.EncodeToString(secret), stored,
		"values should be stored base64-encoded")
}

func TestSecretsManagerStore_WriteExisting(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSecretsManager()
	store := NewSecretsManagerStoreWithClient(fake)

	require.NoError(t, store.WriteSecret(ctx, piicrypt.RootSaltName, []byte("version one")))
	require.NoError(t, store.WriteSecret(ctx, piicrypt.RootSaltName, []byte("version two")))

	got, err := store.ReadSecret(ctx, piicrypt.RootSaltName)
	require.NoError(t, err)
	assert.Equal(t, []byte("version two"), got)
}

func TestSecretsManagerStore_ReadNotFound(t *testing.T) {
	store := NewSecretsManagerStoreWithClient(newFakeSecretsManager())

	_, err := store.ReadSecret(context.Background(), piicrypt.RootSecretName)
	require.ErrorIs(t, err, piicrypt.ErrSecretSourceUnavailable)
}

func TestSecretsManagerStore_ReadInvalidBase64(t *testing.T) {
	fake := newFakeSecretsManager()
	fake.secrets["audit/"+piicrypt.RootSecretName] = "not base64 at all!"
	store := NewSecretsManagerStoreWithClient(fake)

	_, err := store.ReadSecret(context.Background(), piicrypt.RootSecretName)
	require.ErrorIs(t, err, piicrypt.ErrSecretSourceUnavailable)
}

func TestSecretsManagerStore_StorageName(t *testing.T) {
	store := NewSecretsManagerStoreWithClient(newFakeSecretsManager())
	assert.Equal(t, "audit/root-secret", store.StorageName(piicrypt.RootSecretName))
}
