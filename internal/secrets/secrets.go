// Package secrets looks up API keys from the environment, a .env file or the
// OS keyring, in that order.
package secrets

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// Store resolves named secrets.
type Store struct {
	envFile        string
	keyringService string
	log            *slog.Logger
}

// Config holds configuration values for the secret store.
//
// It is organized to take advantage of TOML parsing, however this package does
// not handle parsing and has no expectation on how it will be initialized.
type Config struct {
	// EnvFile is an optional dotenv file consulted after the process
	// environment.
	EnvFile string
	// KeyringService is the OS keyring service secrets are stored under. An
	// empty value disables the keyring lookup.
	KeyringService string
}

// NewStore initializes a Store.
func NewStore(conf Config, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}
	return Store{
		envFile:        conf.EnvFile,
		keyringService: conf.KeyringService,
		log:            log,
	}
}

// LoadEnvKey returns the secret called name, or "" if it is not set anywhere.
// Lookup failures are logged and treated as unset.
func (s Store) LoadEnvKey(name string) string {
	log := s.log.With("secret", name)
	if v, ok := os.LookupEnv(name); ok && v != "" {
		log.Debug("found secret in environment")
		return v
	}

	if s.envFile != "" {
		env, err := godotenv.Read(s.envFile)
		switch {
		case err == nil && env[name] != "":
			log.Debug("found secret in env file", "path", s.envFile)
			return env[name]
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			log.Warn("failed to read env file", "path", s.envFile, "error", err)
		}
	}

	if s.keyringService != "" {
		v, err := keyring.Get(s.keyringService, name)
		switch {
		case err == nil:
			log.Debug("found secret in keyring", "service", s.keyringService)
			return v
		case !errors.Is(err, keyring.ErrNotFound):
			log.Warn("failed to read keyring", "service", s.keyringService, "error", err)
		}
	}
	return ""
}
