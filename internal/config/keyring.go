package config

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name tokens are stored under.
const KeyringService = "jellysync"

// SetToken saves the token of a profile to the system keyring.
func SetToken(profile, token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := keyring.Set(KeyringService, profile, token); err != nil {
		return fmt.Errorf("save token for %s to keyring: %w", profile, err)
	}
	return nil
}

// GetToken retrieves the token of a profile from the system keyring.
func GetToken(profile string) (string, error) {
	token, err := keyring.Get(KeyringService, profile)
	if err != nil {
		return "", fmt.Errorf("read token for %s from keyring: %w", profile, err)
	}
	return token, nil
}

// DeleteToken removes the token of a profile from the system keyring.
func DeleteToken(profile string) error {
	return keyring.Delete(KeyringService, profile)
}
