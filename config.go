package piicrypt

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for constructing the key material and ledger at
// process startup. It contains only data; load it from the environment, a
// YAML file, or code, and pass it explicitly to the constructors.
type Config struct {
	// SecretPath is the path of the protected root secret file.
	// Required when the file-based secret source is used.
	SecretPath string `yaml:"secret_path"`

	// SaltPath is the path of the persisted root salt file.
	// Required when the file-based secret source is used.
	SaltPath string `yaml:"salt_path"`

	// PBKDF2Iterations is the iteration count for cipher-key derivation.
	// Zero selects DefaultPBKDF2Iterations; values below MinPBKDF2Iterations
	// are rejected.
	PBKDF2Iterations int `yaml:"pbkdf2_iterations"`

	// LedgerPath is the path of the SQLite key-generation ledger.
	// Defaults to .auditcrypt/ledger.db.
	LedgerPath string `yaml:"ledger_path"`
}

// Validate checks required fields and applies defaults to optional ones.
func (c *Config) Validate() error {
	if c.SecretPath == "" {
		return fmt.Errorf("%w: SecretPath is required", ErrInvalidConfiguration)
	}
	if c.SaltPath == "" {
		return fmt.Errorf("%w: SaltPath is required", ErrInvalidConfiguration)
	}

	if c.PBKDF2Iterations == 0 {
		c.PBKDF2Iterations = DefaultPBKDF2Iterations
	}
	if c.PBKDF2Iterations < MinPBKDF2Iterations {
		return fmt.Errorf("%w: PBKDF2Iterations must be at least %d, got %d",
			ErrInvalidConfiguration, MinPBKDF2Iterations, c.PBKDF2Iterations)
	}

	if c.LedgerPath == "" {
		c.LedgerPath = filepath.Join(DefaultLedgerDir, DefaultLedgerFilename)
	}

	return nil
}

// LoadConfigFromEnvironment reads the configuration from AUDITCRYPT_*
// environment variables and validates it.
func LoadConfigFromEnvironment() (Config, error) {
	cfg := Config{
		SecretPath: os.Getenv(EnvSecretPath),
		SaltPath:   os.Getenv(EnvSaltPath),
		LedgerPath: os.Getenv(EnvLedgerPath),
	}

	if raw := os.Getenv(EnvPBKDF2Iterations); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s must be an integer", ErrInvalidConfiguration, EnvPBKDF2Iterations)
		}
		cfg.PBKDF2Iterations = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFromFile reads the configuration from a YAML file and validates it.
func LoadConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading config file: %w", ErrInvalidConfiguration, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing config file: %w", ErrInvalidConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
