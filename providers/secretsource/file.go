// Package secretsource provides file-based key material sources. Network
// backends (HashiCorp Vault KV, AWS Secrets Manager) live in sub-packages.
package secretsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	piicrypt "github.com/pdsykes2512/surg-db-sub004"
)

// FileSource reads the root secret and root salt from permission-restricted
// files on local disk. Files readable by group or others are rejected: a
// loose secret file is treated the same as a missing one.
type FileSource struct {
	secretPath string
	saltPath   string
}

// NewFileSource builds a source over the two protected files.
func NewFileSource(secretPath, saltPath string) *FileSource {
	return &FileSource{secretPath: secretPath, saltPath: saltPath}
}

func (s *FileSource) pathFor(name string) (string, error) {
	switch name {
	case piicrypt.RootSecretName:
		return s.secretPath, nil
	case piicrypt.RootSaltName:
		return s.saltPath, nil
	default:
		return "", fmt.Errorf("%w: unknown secret name '%s'",
			piicrypt.ErrSecretSourceUnavailable, name)
	}
}

// ReadSecret returns the file contents as opaque bytes. The contents are
// never included in any error.
func (s *FileSource) ReadSecret(ctx context.Context, name string) ([]byte, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", piicrypt.ErrSecretSourceUnavailable, path, err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return nil, fmt.Errorf("%w: %s is readable by group or others (mode %s)",
			piicrypt.ErrSecretSourceUnavailable, path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", piicrypt.ErrSecretSourceUnavailable, path, err)
	}
	return data, nil
}

// WriteSecret persists a secret with owner-only permissions. An existing file
// is never overwritten: clobbering a live root salt would orphan every
// encrypted record.
func (s *FileSource) WriteSecret(ctx context.Context, name string, value []byte) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: creating %s: %w", piicrypt.ErrSecretSourceUnavailable, dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s already exists and will not be overwritten",
				piicrypt.ErrSecretSourceUnavailable, path)
		}
		return fmt.Errorf("%w: creating %s: %w", piicrypt.ErrSecretSourceUnavailable, path, err)
	}

	if _, err := f.Write(value); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%w: writing %s: %w", piicrypt.ErrSecretSourceUnavailable, path, err)
	}
	return f.Close()
}
