// Package aws implements a piicrypt.SecretSource backed by AWS Secrets
// Manager.
package aws

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	piicrypt "github.com/pdsykes2512/surg-db-sub004"
)

// secretNamePrefix namespaces this application's secrets within an account.
const secretNamePrefix = "audit/"

// secretsManagerClient is the subset of the Secrets Manager API the store
// uses. Narrowing to an interface keeps the store mockable in tests.
type secretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

// SecretsManagerStore stores the root secret and root salt in AWS Secrets
// Manager. Values are kept base64-encoded in the SecretString field so they
// stay opaque bytes end to end.
type SecretsManagerStore struct {
	client secretsManagerClient
}

// NewSecretsManagerStore creates a store using the default AWS credential
// chain (environment, shared config, instance role).
func NewSecretsManagerStore(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (*SecretsManagerStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS configuration: %w",
			piicrypt.ErrSecretSourceUnavailable, err)
	}
	return &SecretsManagerStore{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// NewSecretsManagerStoreWithClient creates a store with a caller-supplied
// client. Used in tests.
func NewSecretsManagerStoreWithClient(client secretsManagerClient) *SecretsManagerStore {
	return &SecretsManagerStore{client: client}
}

// StorageName returns the Secrets Manager secret name for a secret.
func (s *SecretsManagerStore) StorageName(name string) string {
	return secretNamePrefix + name
}

// ReadSecret reads a secret's opaque bytes from Secrets Manager.
func (s *SecretsManagerStore) ReadSecret(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.StorageName(name)),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: secret '%s' not found",
				piicrypt.ErrSecretSourceUnavailable, name)
		}
		return nil, fmt.Errorf("%w: reading from Secrets Manager: %w",
			piicrypt.ErrSecretSourceUnavailable, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("%w: secret '%s' has no string value",
			piicrypt.ErrSecretSourceUnavailable, name)
	}

	value, err := base64.StdEncoding.DecodeString(*out.SecretString)
	if err != nil {
		return nil, fmt.Errorf("%w: secret '%s' is not valid base64",
			piicrypt.ErrSecretSourceUnavailable, name)
	}
	return value, nil
}

// WriteSecret stores a secret, creating it on first write and adding a new
// version when it already exists.
func (s *SecretsManagerStore) WriteSecret(ctx context.Context, name string, value []byte) error {
	encoded := base64.StdEncoding.EncodeToString(value)
	storageName := s.StorageName(name)

	_, err := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(storageName),
		SecretString: aws.String(encoded),
	})
	if err == nil {
		return nil
	}

	var exists *types.ResourceExistsException
	if !errors.As(err, &exists) {
		return fmt.Errorf("%w: creating secret in Secrets Manager: %w",
			piicrypt.ErrSecretSourceUnavailable, err)
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(storageName),
		SecretString: aws.String(encoded),
	})
	if err != nil {
		return fmt.Errorf("%w: updating secret in Secrets Manager: %w",
			piicrypt.ErrSecretSourceUnavailable, err)
	}
	return nil
}
