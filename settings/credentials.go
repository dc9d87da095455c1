// Package settings stores provider API keys outside the project tree.
//
// Keys live in the XDG data directory:
//
//	$XDG_DATA_HOME/locsync/auth.json  (default: ~/.local/share/locsync/)
//
// The file is a JSON object keyed by provider name. File permissions are
// 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. LOCSYNC_* / provider environment variables (see config.Env)
//  2. This credential store
package settings

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/xerrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	dataDirName = "locsync"
	fileName    = "auth.json"
)

// Info is the entry stored per provider.
type Info struct {
	Key string `json:"key"`
	// BaseURL optionally overrides the provider endpoint.
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all provider credentials, keyed by provider name.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for locsync.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", xerrors.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	dir, err := dataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, fileName)
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path := FilePath()
	if path == "" {
		return make(Store)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}
	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path := FilePath()
	if path == "" {
		return xerrors.New("cannot determine data directory")
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return xerrors.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return xerrors.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return xerrors.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key for a provider (upsert).
func SetAPIKey(provider, key string) error {
	store := Load()
	info := store[provider]
	if info == nil {
		info = &Info{}
	}
	info.Key = key
	store[provider] = info
	return Save(store)
}

// GetAPIKey retrieves the stored API key for a provider, or "".
func GetAPIKey(provider string) string {
	if info := Load()[provider]; info != nil {
		return info.Key
	}
	return ""
}

// Remove deletes credentials for a provider.
func Remove(provider string) error {
	store := Load()
	if _, ok := store[provider]; !ok {
		return nil // Nothing to delete
	}
	delete(store, provider)
	return Save(store)
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
