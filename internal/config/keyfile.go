package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// serviceAccountKeyType is the "type" of a Google service account JSON key.
const serviceAccountKeyType = "service_account"

// keyFile is the subset of a Google service account JSON key ghive reads.
type keyFile struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// applyKeyFile fills the service account fields that are still empty from
// the JSON key at sa.KeyFile. Explicit email, key, and token URL win.
func applyKeyFile(sa *ServiceAccountConfig) error {
	if sa.KeyFile == "" {
		return nil
	}

	data, err := os.ReadFile(sa.KeyFile)
	if err != nil {
		return fmt.Errorf("key_file: reading %s: %w", sa.KeyFile, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return fmt.Errorf("key_file: parsing %s: %w", sa.KeyFile, err)
	}

	if kf.Type != serviceAccountKeyType {
		return fmt.Errorf("key_file: %s has type %q, want %q", sa.KeyFile, kf.Type, serviceAccountKeyType)
	}

	if kf.ClientEmail == "" || kf.PrivateKey == "" {
		return errors.New("key_file: client_email and private_key are required")
	}

	if sa.Email == "" {
		sa.Email = kf.ClientEmail
	}

	if sa.PrivateKey == "" {
		sa.PrivateKey = kf.PrivateKey
	}

	if sa.TokenURL == "" {
		sa.TokenURL = kf.TokenURI
	}

	return nil
}
