package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file. Unknown keys are fatal errors
// with "did you mean?" suggestions. Values are validated later by Resolve,
// once environment and flags have been layered on top: a file alone rarely
// holds the credentials.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	cfg.Path = path

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// The .env file must already be loaded (LoadEnvFile) before env is read.
// The returned Config is validated.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	cfg, err := Merge(env, cli)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Merge applies the same override chain as Resolve but skips validation, so
// "config show" can display a configuration that does not validate yet.
func Merge(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	// 1. Resolve config path: CLI > env > default. An explicit path must
	// exist; the default one is optional.
	cfgPath := DefaultConfigPath()
	explicit := false

	if env.ConfigPath != "" {
		cfgPath, explicit = env.ConfigPath, true
	}

	if cli.ConfigPath != "" {
		cfgPath, explicit = cli.ConfigPath, true
	}

	var (
		cfg *Config
		err error
	)

	if explicit {
		cfg, err = Load(cfgPath)
	} else {
		cfg, err = LoadOrDefault(cfgPath)
	}

	if err != nil {
		return nil, err
	}

	// 2. Environment.
	applyEnv(cfg, env)

	// 3. CLI flags (pointer fields: nil = not specified).
	if cli.StateDB != nil {
		cfg.State.DBPath = *cli.StateDB
	}

	if cli.LogLevel != nil {
		cfg.Logging.LogLevel = *cli.LogLevel
	}

	// 4. Derived values.
	if err := applyKeyFile(&cfg.ServiceAccount); err != nil {
		return nil, err
	}

	fillStatePaths(&cfg.State)

	return cfg, nil
}

func applyEnv(cfg *Config, env EnvOverrides) {
	if env.ServiceAccountEmail != "" {
		cfg.ServiceAccount.Email = env.ServiceAccountEmail
	}

	if env.ServiceAccountKey != "" {
		cfg.ServiceAccount.PrivateKey = env.ServiceAccountKey
	}

	if env.ServiceAccountKeyFile != "" {
		cfg.ServiceAccount.KeyFile = env.ServiceAccountKeyFile
	}

	if env.UserEmails != nil {
		cfg.Policy.UserEmails = env.UserEmails
	}

	if env.RootFolders != nil {
		cfg.Policy.RootFolders = env.RootFolders
	}

	if env.DiscordWebhookURL != nil {
		cfg.Notify.DiscordWebhookURL = *env.DiscordWebhookURL
	}

	if env.StateDB != "" {
		cfg.State.DBPath = env.StateDB
	}
}

// fillStatePaths defaults the ledger to the data directory and the lock file
// next to the ledger.
func fillStatePaths(s *StateConfig) {
	if s.DBPath == "" {
		s.DBPath = DefaultStateDBPath()
	}

	if s.LockPath == "" && s.DBPath != "" {
		s.LockPath = filepath.Join(filepath.Dir(s.DBPath), lockFileName)
	}
}
