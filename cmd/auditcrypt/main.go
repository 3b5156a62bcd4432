// Command auditcrypt manages the key material of the audit database's
// field-encryption layer: installation, startup checks, operator digest
// lookups, and rotation-run status.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	piicrypt "github.com/pdsykes2512/surg-db-sub004"
	"github.com/pdsykes2512/surg-db-sub004/internal/keyledger"
	"github.com/pdsykes2512/surg-db-sub004/providers/secretsource"
)

func main() {
	// Local development convenience; absence of a .env file is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = initCommand(os.Args[2:])
	case "check":
		err = checkCommand(os.Args[2:])
	case "digest":
		err = digestCommand(os.Args[2:])
	case "status":
		err = statusCommand(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "auditcrypt: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  init    Generate and persist the root salt, record generation 1\n")
	fmt.Fprintf(os.Stderr, "  check   Load key material and run an encrypt/decrypt self-test\n")
	fmt.Fprintf(os.Stderr, "  digest  Compute the search digest for a field and value\n")
	fmt.Fprintf(os.Stderr, "  status  Show key generations and rotation runs\n")
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -h' for help on a specific command.\n", os.Args[0])
}

// loadConfig reads configuration from a YAML file when -config is given,
// otherwise from AUDITCRYPT_* environment variables.
func loadConfig(configPath string) (piicrypt.Config, error) {
	if configPath != "" {
		return piicrypt.LoadConfigFromFile(configPath)
	}
	return piicrypt.LoadConfigFromEnvironment()
}

func initCommand(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	src := secretsource.NewFileSource(cfg.SecretPath, cfg.SaltPath)

	salt := make([]byte, piicrypt.RootSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generating root salt: %w", err)
	}
	if err := src.WriteSecret(ctx, piicrypt.RootSaltName, salt); err != nil {
		return err
	}

	km, err := piicrypt.LoadKeyMaterial(ctx, src,
		piicrypt.WithPBKDF2Iterations(cfg.PBKDF2Iterations))
	if err != nil {
		return err
	}

	ledger, err := keyledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	gen, err := ledger.RecordGeneration(ctx, km.Fingerprint(), km.Iterations())
	if err != nil {
		return err
	}

	fmt.Printf("Root salt written to %s\n", cfg.SaltPath)
	fmt.Printf("Key generation %d recorded (fingerprint %s)\n", gen, km.Fingerprint())
	return nil
}

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	src := secretsource.NewFileSource(cfg.SecretPath, cfg.SaltPath)

	km, err := piicrypt.LoadKeyMaterial(ctx, src,
		piicrypt.WithPBKDF2Iterations(cfg.PBKDF2Iterations))
	if err != nil {
		return err
	}

	cipher, err := piicrypt.NewFieldCipher(km)
	if err != nil {
		return err
	}
	const probe = "auditcrypt-self-test"
	sealed, err := cipher.Encrypt(probe)
	if err != nil {
		return fmt.Errorf("self-test encryption: %w", err)
	}
	opened, err := cipher.Decrypt(sealed)
	if err != nil {
		return fmt.Errorf("self-test decryption: %w", err)
	}
	if opened != probe {
		return fmt.Errorf("self-test round trip mismatch")
	}

	fmt.Printf("Key material OK (fingerprint %s, %d PBKDF2 iterations)\n",
		km.Fingerprint(), km.Iterations())
	return nil
}

func digestCommand(args []string) error {
	fs := flag.NewFlagSet("digest", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	entity := fs.String("entity", "patient", "Entity type the field belongs to")
	field := fs.String("field", "", "Searchable field name (e.g. nhs_number)")
	value := fs.String("value", "", "Plaintext value to digest")
	fs.Parse(args)

	if *field == "" || *value == "" {
		return fmt.Errorf("-field and -value are required")
	}

	spec, ok := piicrypt.DefaultSpecs()[*entity]
	if !ok {
		return fmt.Errorf("unknown entity '%s'", *entity)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	src := secretsource.NewFileSource(cfg.SecretPath, cfg.SaltPath)

	km, err := piicrypt.LoadKeyMaterial(ctx, src,
		piicrypt.WithPBKDF2Iterations(cfg.PBKDF2Iterations))
	if err != nil {
		return err
	}

	qb := piicrypt.NewSearchQueryBuilder(km, spec)
	filter, err := qb.BuildEqualityFilter(*field, *value)
	if err != nil {
		return err
	}
	for attr, digest := range filter {
		fmt.Printf("%s = %s\n", attr, digest)
	}
	return nil
}

func statusCommand(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()

	ledger, err := keyledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	gens, err := ledger.Generations(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Key generations:")
	if len(gens) == 0 {
		fmt.Println("  (none recorded; run 'auditcrypt init')")
	}
	for _, g := range gens {
		state := "active"
		if g.RetiredAt != nil {
			state = "retired " + g.RetiredAt.Format("2006-01-02")
		}
		fmt.Printf("  #%d  %s  %d iterations  %s\n", g.Number, g.Fingerprint, g.Iterations, state)
	}

	runs, err := ledger.Runs(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Rotation runs:")
	if len(runs) == 0 {
		fmt.Println("  (none)")
	}
	for _, r := range runs {
		state := "in progress"
		if r.FinishedAt != nil {
			state = fmt.Sprintf("%d/%d rotated, %d failed", r.Rotated, r.Total, r.Failed)
		}
		fmt.Printf("  %s  %s  %s -> %s  %s\n", r.ID, r.Entity, r.FromFingerprint, r.ToFingerprint, state)
	}
	return nil
}
