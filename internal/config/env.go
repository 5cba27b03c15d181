package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names. The Google and Discord names match existing
// deployments' secrets.
const (
	EnvConfig                = "GHIVE_CONFIG"
	EnvStateDB               = "GHIVE_STATE_DB"
	EnvServiceAccountEmail   = "GOOGLE_SERVICE_ACCOUNT_EMAIL"
	EnvServiceAccountKey     = "GOOGLE_SERVICE_ACCOUNT_KEY"
	EnvServiceAccountKeyFile = "GOOGLE_SERVICE_ACCOUNT_KEY_FILE"
	EnvDiscordWebhookURL     = "DISCORD_WEBHOOK_URL"
	EnvUserEmails            = "USER_EMAILS_ALLOW_LIST"
	EnvRootFolders           = "ROOT_FOLDERS_ALLOW_LIST"
)

// webhookDisabled is the DISCORD_WEBHOOK_URL value that turns
// notifications off, even when the config file sets a webhook.
const webhookDisabled = "null"

// defaultEnvFile is read from the working directory when --env-file is not
// given. Its absence is not an error.
const defaultEnvFile = ".env"

// EnvOverrides holds values derived from environment variables. Empty
// strings and nil slices mean "not set".
type EnvOverrides struct {
	ConfigPath            string
	StateDB               string
	ServiceAccountEmail   string
	ServiceAccountKey     string
	ServiceAccountKeyFile string
	UserEmails            []string
	RootFolders           []string

	// DiscordWebhookURL is nil when the variable is unset. A pointer to ""
	// disables notifications.
	DiscordWebhookURL *string
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already present in the environment are left alone. An empty
// path reads ./.env if it exists; an explicit path must exist.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("loading env file %s: %w", path, err)
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; Resolve applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	env := EnvOverrides{
		ConfigPath:            os.Getenv(EnvConfig),
		StateDB:               os.Getenv(EnvStateDB),
		ServiceAccountEmail:   strings.TrimSpace(os.Getenv(EnvServiceAccountEmail)),
		ServiceAccountKey:     UnescapeKey(os.Getenv(EnvServiceAccountKey)),
		ServiceAccountKeyFile: os.Getenv(EnvServiceAccountKeyFile),
		UserEmails:            ParseList(os.Getenv(EnvUserEmails)),
		RootFolders:           ParseList(os.Getenv(EnvRootFolders)),
	}

	if v, ok := os.LookupEnv(EnvDiscordWebhookURL); ok {
		v = strings.TrimSpace(v)
		if v == webhookDisabled {
			v = ""
		}

		env.DiscordWebhookURL = &v
	}

	return env
}

// UnescapeKey turns literal "\n" sequences into newlines. CI secret stores
// commonly hold a PEM key on a single line.
func UnescapeKey(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// ParseList splits a comma-separated list, trimming whitespace and dropping
// empty and repeated entries. First occurrence order is kept. Returns nil
// when nothing remains.
func ParseList(s string) []string {
	var out []string

	seen := make(map[string]bool)

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}

		seen[part] = true
		out = append(out, part)
	}

	return out
}
