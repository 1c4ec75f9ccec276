package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL  = "http://localhost:8080"
	tokenFileName  = ".trade_tracker_token"
	envAPIURL      = "TRADE_TRACKER_API_URL"
	envTokenFile   = "TRADE_TRACKER_TOKEN_FILE"
	envAccessToken = "TRADE_TRACKER_TOKEN"
)

// ErrNotLoggedIn is returned when no token is stored.
var ErrNotLoggedIn = errors.New("not logged in; run `tt login` first")

// APIURL returns the base URL for the Trade Tracker API.
// It can be overridden with the TRADE_TRACKER_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv(envAPIURL); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// TokenPath is where login stores the JWT. TRADE_TRACKER_TOKEN_FILE overrides it.
func TokenPath() string {
	if v := os.Getenv(envTokenFile); v != "" {
		return v
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, tokenFileName)
}

// SaveToken writes the token readable only by the current user.
func SaveToken(token string) error {
	return os.WriteFile(TokenPath(), []byte(token), 0o600)
}

// LoadToken returns TRADE_TRACKER_TOKEN when set, else the stored token.
func LoadToken() (string, error) {
	if v := os.Getenv(envAccessToken); v != "" {
		return v, nil
	}
	data, err := os.ReadFile(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// ClearToken removes the stored token. It reports false when there was none.
func ClearToken() (bool, error) {
	err := os.Remove(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
