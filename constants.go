package piicrypt

// Secret names resolved by a SecretSource.
const (
	// RootSecretName identifies the root secret the cipher key is derived from.
	RootSecretName = "root-secret"

	// RootSaltName identifies the root salt. Generated once at installation,
	// persisted, and reused for every subsequent startup.
	RootSaltName = "root-salt"
)

// Key derivation parameters.
const (
	// CipherKeyLength is the derived AES-256 key size in bytes.
	CipherKeyLength = 32

	// RootSaltLength is the size of a freshly generated root salt in bytes.
	RootSaltLength = 32

	// MinSecretLength is the minimum accepted root secret size in bytes.
	// Anything shorter fails the key load instead of weakening the key.
	MinSecretLength = 16

	// MinSaltLength is the minimum accepted root salt size in bytes.
	MinSaltLength = 16

	// DefaultPBKDF2Iterations is the default iteration count for deriving the
	// cipher key from the root secret.
	DefaultPBKDF2Iterations = 150_000

	// MinPBKDF2Iterations is the lowest iteration count LoadKeyMaterial accepts.
	MinPBKDF2Iterations = 100_000
)

// Storage-facing value formats.
const (
	// EncryptedValuePrefix tags a ciphertext string produced by FieldCipher.
	EncryptedValuePrefix = "ENC:"

	// HashFieldSuffix is appended to a searchable field's leaf name to form the
	// parallel digest attribute, e.g. "nhs_number" -> "nhs_number_hash".
	HashFieldSuffix = "_hash"

	// DigestLength is the length of a hex-encoded search digest (SHA-256).
	DigestLength = 64
)

// Environment variable names for LoadConfigFromEnvironment.
const (
	// EnvSecretPath is the path of the root secret file.
	EnvSecretPath = "AUDITCRYPT_SECRET_PATH"

	// EnvSaltPath is the path of the root salt file.
	EnvSaltPath = "AUDITCRYPT_SALT_PATH"

	// EnvPBKDF2Iterations overrides the PBKDF2 iteration count.
	EnvPBKDF2Iterations = "AUDITCRYPT_PBKDF2_ITERATIONS"

	// EnvLedgerPath is the path of the SQLite key-generation ledger.
	EnvLedgerPath = "AUDITCRYPT_LEDGER_PATH"
)

// Default values applied by Config.Validate.
const (
	// DefaultLedgerDir is the default directory for the key ledger database.
	DefaultLedgerDir = ".auditcrypt"

	// DefaultLedgerFilename is the default ledger database filename.
	DefaultLedgerFilename = "ledger.db"
)
