// Package testutil provides shared environment helpers for E2E tests, which
// run the built binary against a live Google Drive and cannot import
// internal/.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// AllowedAccountsEnv lists the service accounts live tests may act as.
const AllowedAccountsEnv = "GHIVE_E2E_ALLOWED_ACCOUNTS"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	if _, err := os.Stat(envPath); err != nil {
		return
	}

	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: loading %s: %v\n", envPath, err)
		os.Exit(1)
	}
}

// ValidateAllowlist crashes the process unless the account named by
// emailEnvVar is listed in GHIVE_E2E_ALLOWED_ACCOUNTS. A live run accepts
// real ownership transfers; it must never act as a production account by
// accident.
func ValidateAllowlist(emailEnvVar string) {
	allowlist := os.Getenv(AllowedAccountsEnv)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", AllowedAccountsEnv)
		fmt.Fprintln(os.Stderr, "Set it in .env or as an environment variable.")
		fmt.Fprintf(os.Stderr, "Example: %s=ghive-test@proj.iam.gserviceaccount.com\n", AllowedAccountsEnv)
		os.Exit(1)
	}

	account := os.Getenv(emailEnvVar)
	if account == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", emailEnvVar)
		os.Exit(1)
	}

	for _, a := range strings.Split(allowlist, ",") {
		if strings.EqualFold(strings.TrimSpace(a), account) {
			return
		}
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n",
		emailEnvVar, account, AllowedAccountsEnv, allowlist)
	os.Exit(1)
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}
