package config

import (
	"fmt"
	"io"
	"strings"
)

// Placeholders printed instead of secrets.
const (
	redactedValue = "(set, redacted)"
	unsetValue    = "(not set)"
)

// RenderEffective writes the layered configuration as an annotated TOML-like
// summary to w. This powers "config show". The private key and the webhook
// URL are never printed.
func RenderEffective(cfg *Config, w io.Writer) error {
	ew := &errWriter{w: w}

	if cfg.Path != "" {
		ew.printf("# Effective configuration (file: %s)\n\n", cfg.Path)
	} else {
		ew.printf("# Effective configuration (no config file)\n\n")
	}

	renderServiceAccountSection(ew, &cfg.ServiceAccount)
	renderPolicySection(ew, &cfg.Policy)
	renderNotifySection(ew, &cfg.Notify)
	renderLoggingSection(ew, &cfg.Logging)
	renderNetworkSection(ew, &cfg.Network)
	renderStateSection(ew, &cfg.State)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderServiceAccountSection(ew *errWriter, sa *ServiceAccountConfig) {
	ew.printf("[service_account]\n")
	ew.printf("  email       = %q\n", sa.Email)
	ew.printf("  private_key = %s\n", secret(sa.PrivateKey))

	if sa.KeyFile != "" {
		ew.printf("  key_file    = %q\n", sa.KeyFile)
	}

	if sa.TokenURL != "" {
		ew.printf("  token_url   = %q\n", sa.TokenURL)
	}

	ew.printf("\n")
}

func renderPolicySection(ew *errWriter, p *PolicyConfig) {
	ew.printf("[policy]\n")
	ew.printf("  user_emails  = [%s]\n", joinQuoted(p.UserEmails))
	ew.printf("  root_folders = [%s]\n", joinQuoted(p.RootFolders))
	ew.printf("\n")
}

func renderNotifySection(ew *errWriter, n *NotifyConfig) {
	ew.printf("[notify]\n")
	ew.printf("  discord_webhook_url = %s\n", secret(n.DiscordWebhookURL))
	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", l.LogLevel)
	ew.printf("  log_format = %q\n", l.LogFormat)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("[network]\n")
	ew.printf("  timeout    = %q\n", n.Timeout)
	ew.printf("  user_agent = %q\n", n.UserAgent)
	ew.printf("\n")
}

func renderStateSection(ew *errWriter, s *StateConfig) {
	ew.printf("[state]\n")
	ew.printf("  db_path   = %q\n", s.DBPath)
	ew.printf("  lock_path = %q\n", s.LockPath)
}

func secret(v string) string {
	if v == "" {
		return unsetValue
	}

	return redactedValue
}

// joinQuoted formats a string slice as comma-separated quoted values.
func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}

	return strings.Join(quoted, ", ")
}
