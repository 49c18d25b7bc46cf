// Package secrets generates the credentials the room service needs at
// startup and prints them in .env form.
package secrets

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/aussiebroadwan/roomkey/pkg/cryptox"
)

// Config holds secret generation settings.
type Config struct {
	SecretBytes   int
	AdminKeyBytes int

	// AdminKey hashes an existing key instead of generating one.
	AdminKey string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		SecretBytes:   cryptox.TokenSize512,
		AdminKeyBytes: cryptox.TokenSize256,
	}
	fs.IntVar(&cfg.SecretBytes, "secret-bytes", cfg.SecretBytes, "random bytes in JWT_SECRET")
	fs.IntVar(&cfg.AdminKeyBytes, "admin-key-bytes", cfg.AdminKeyBytes, "random bytes in ADMIN_API_KEY")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "hash this admin key instead of generating one")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run writes JWT_SECRET, ADMIN_API_KEY and ADMIN_API_KEY_HASH to out.
// The admin key fingerprint is printed as a comment so operators can tell
// keys apart without exposing them.
func Run(cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if cfg.SecretBytes < 32 {
		return errors.New("secret-bytes must be at least 32")
	}

	secret, err := cryptox.GenerateToken(cfg.SecretBytes)
	if err != nil {
		return fmt.Errorf("generate jwt secret: %w", err)
	}

	adminKey := cfg.AdminKey
	if adminKey == "" {
		if cfg.AdminKeyBytes < 16 {
			return errors.New("admin-key-bytes must be at least 16")
		}
		if adminKey, err = cryptox.GenerateToken(cfg.AdminKeyBytes); err != nil {
			return fmt.Errorf("generate admin key: %w", err)
		}
	}

	hash, err := cryptox.HashSecret(adminKey)
	if err != nil {
		return fmt.Errorf("hash admin key: %w", err)
	}

	_, err = fmt.Fprintf(out,
		"JWT_SECRET=%s\nADMIN_API_KEY=%s\n# fingerprint %s\nADMIN_API_KEY_HASH='%s'\n",
		secret, adminKey, cryptox.FingerprintToken(adminKey), hash,
	)
	return err
}
