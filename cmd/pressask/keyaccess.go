package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	keyringService = "pressask"
	keyringAccount = "gemini-api-key"
	keyEnvVar      = "GEMINI_API_KEY"
)

// keychainKey retrieves the API key from the OS keychain.
// If allowEnv is false, environment variables are ignored.
func keychainKey(allowEnv bool) (string, string) {
	key, err := keyring.Get(keyringService, keyringAccount)
	if err == nil && key != "" {
		return strings.TrimSpace(key), "Keychain"
	}

	if allowEnv {
		if key := strings.TrimSpace(os.Getenv(keyEnvVar)); key != "" {
			return key, "Environment Variable"
		}
	}

	return "", ""
}

// saveKeychainKey saves the key to the OS keychain.
func saveKeychainKey(key string) error {
	return keyring.Set(keyringService, keyringAccount, strings.TrimSpace(key))
}

// deleteKeychainKey removes the key from the OS keychain.
func deleteKeychainKey() error {
	return keyring.Delete(keyringService, keyringAccount)
}

// keychainStatus returns whether a key exists in the keychain.
func keychainStatus() bool {
	key, err := keyring.Get(keyringService, keyringAccount)
	return err == nil && key != ""
}

// envKey retrieves the key from the environment only.
func envKey() (string, bool) {
	key := strings.TrimSpace(os.Getenv(keyEnvVar))
	if key == "" {
		return "", false
	}
	return key, true
}

// promptForAPIKey securely prompts the user for their API key.
func promptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}
