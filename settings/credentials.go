// Package settings stores provider API keys between runs.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/locpipe/auth.json  (default: ~/.local/share/locpipe/auth.json)
//
// The file is a JSON object keyed by provider ID ("deepl", "google"), each
// value carrying the API key. File permissions are 0600 (owner read/write
// only).
//
// Lookup order for API keys:
//  1. command-line flag (highest priority)
//  2. provider environment variable (DEEPL_AUTH_KEY, GOOGLE_API_KEY)
//  3. this credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "locpipe"
	fileName    = "auth.json"
)

// Info is one stored credential.
type Info struct {
	Key string `json:"key"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Info

// dataDir returns the XDG data directory for locpipe.
// Respects $XDG_DATA_HOME, falling back to ~/.local/share.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// DataDir returns the locpipe data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return make(Store)
	}

	if store == nil {
		return make(Store)
	}

	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}

	return nil
}

// Get returns the auth entry for a provider, or nil if not found.
func Get(providerID string) *Info {
	store := Load()
	return store[providerID]
}

// SetAPIKey stores an API key for a provider (upsert).
func SetAPIKey(providerID, key string) error {
	store := Load()
	store[providerID] = &Info{Key: key}
	return Save(store)
}

// GetAPIKey retrieves the stored API key for a provider.
// Returns empty string if not found.
func GetAPIKey(providerID string) string {
	info := Get(providerID)
	if info == nil {
		return ""
	}
	return info.Key
}

// Remove deletes credentials for a provider.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil // Nothing to delete
	}
	delete(store, providerID)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// EnvVarForProvider returns the environment variable holding a provider's
// API key, or empty for unknown providers.
func EnvVarForProvider(providerID string) string {
	switch providerID {
	case "deepl":
		return "DEEPL_AUTH_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// ResolveAPIKey picks a provider's API key: explicit flag value first, then
// the provider's environment variable, then the credential store.
func ResolveAPIKey(providerID, flagKey string) string {
	if flagKey != "" {
		return flagKey
	}
	if env := EnvVarForProvider(providerID); env != "" {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return GetAPIKey(providerID)
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
