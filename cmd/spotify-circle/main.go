// Command spotify-circle runs the Spotify Circle web backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-circle/internal/aggregate"
	"github.com/justestif/go-spotify-circle/internal/auth"
	"github.com/justestif/go-spotify-circle/internal/config"
	"github.com/justestif/go-spotify-circle/internal/db"
	"github.com/justestif/go-spotify-circle/internal/lyrics"
	"github.com/justestif/go-spotify-circle/internal/spotify"
	"github.com/justestif/go-spotify-circle/internal/tokens"
	"github.com/justestif/go-spotify-circle/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	ctx := context.Background()
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	authenticator := auth.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)

	sessions, err := auth.NewSessions(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}

	catalog := spotify.NewClient()
	credentials := database.Credentials()
	shares := database.Shares()

	manager := tokens.NewManager(credentials, authenticator)
	aggregator := aggregate.NewService(manager, catalog, credentials, lyrics.NewClient(), logger)

	handlers := web.NewHandlers(authenticator, sessions, catalog, credentials, shares, aggregator, logger)
	server := web.NewServer(cfg.Addr, handlers, logger)

	return server.Run()
}
