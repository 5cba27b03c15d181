// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for ghive. Values are layered
// defaults -> config file -> .env file -> environment -> CLI flags, and the
// fully layered result is validated once.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	ServiceAccount ServiceAccountConfig `toml:"service_account"`
	Policy         PolicyConfig         `toml:"policy"`
	Notify         NotifyConfig         `toml:"notify"`
	Logging        LoggingConfig        `toml:"logging"`
	Network        NetworkConfig        `toml:"network"`
	State          StateConfig          `toml:"state"`

	// Path is the config file the values were read from. Empty when no file
	// existed and only defaults, environment, and flags apply.
	Path string `toml:"-"`
}

// ServiceAccountConfig identifies the account that receives ownership.
// PrivateKey wins over the key found in KeyFile; so does Email.
type ServiceAccountConfig struct {
	Email      string `toml:"email"`
	PrivateKey string `toml:"private_key"`
	KeyFile    string `toml:"key_file"`
	TokenURL   string `toml:"token_url"`
}

// PolicyConfig holds the two allow-lists. An empty list places no
// restriction of its kind, but at least one must be set.
type PolicyConfig struct {
	UserEmails  []string `toml:"user_emails"`
	RootFolders []string `toml:"root_folders"`
}

// NotifyConfig controls the transfer notification sink. An empty webhook
// disables notifications.
type NotifyConfig struct {
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// LoggingConfig controls log output: level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// StateConfig locates local state: the ledger database and the run lock.
type StateConfig struct {
	DBPath   string `toml:"db_path"`
	LockPath string `toml:"lock_path"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath string  // --config flag (empty = use default)
	EnvFile    string  // --env-file flag (empty = ./.env if present)
	StateDB    *string // --state-db flag
	LogLevel   *string // --log-level flag
}
