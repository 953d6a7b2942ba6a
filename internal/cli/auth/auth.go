package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "roomly-cli"
)

// ErrNotAuthenticated is returned when no session is stored for a backend
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'roomly login' first")

// getKeyringKey returns a unique key for storing session tokens per backend
func getKeyringKey(apiURL string) string {
	return fmt.Sprintf("session-%s", apiURL)
}

// SaveToken persists the session token securely in the OS keychain/credential manager
func SaveToken(apiURL, token string) error {
	if err := keyring.Set(service, getKeyringKey(apiURL), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the session token from the OS keychain/credential manager
func LoadToken(apiURL string) (string, error) {
	token, err := keyring.Get(service, getKeyringKey(apiURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the session token from the OS keychain/credential manager
func DeleteToken(apiURL string) error {
	if err := keyring.Delete(service, getKeyringKey(apiURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
