// Package config reads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel errors for missing required environment variables.
var (
	ErrMissingSpotifyCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET environment variable")
	ErrMissingRedirectURI        = errors.New("missing SPOTIFY_REDIRECT_URI environment variable")
	ErrMissingSessionSecret      = errors.New("missing SESSION_SECRET environment variable")
	ErrMissingDatabaseURL        = errors.New("missing DATABASE_URL environment variable")
)

// Config holds the application configuration.
type Config struct {
	Addr          string
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	SessionSecret string
	DatabaseURL   string
}

// Load reads configuration from environment variables.
// PORT defaults to 8888 when unset; everything else is required.
func Load() (*Config, error) {
	cfg := &Config{
		ClientID:      os.Getenv("SPOTIFY_CLIENT_ID"),
		ClientSecret:  os.Getenv("SPOTIFY_CLIENT_SECRET"),
		RedirectURI:   os.Getenv("SPOTIFY_REDIRECT_URI"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingSpotifyCredentials
	}
	if cfg.RedirectURI == "" {
		return nil, ErrMissingRedirectURI
	}
	if cfg.SessionSecret == "" {
		return nil, ErrMissingSessionSecret
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}
	cfg.Addr = fmt.Sprintf(":%s", port)

	return cfg, nil
}
