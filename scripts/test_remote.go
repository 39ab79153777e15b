package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/remote"
	"go-photo-gallery/internal/storage"
)

// Pushes the local snapshot once to the configured remote and prints the
// outcome. Useful for checking credentials before starting the server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})

	pusher, err := storage.NewPusher(cfg.Remote)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to configure remote")
	}
	if pusher == nil {
		fmt.Println("REMOTE_PROVIDER is none, nothing to test")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Pushing %s to %s...\n", cfg.Backup.Path, cfg.Remote.Provider)
	result, err := pusher.Push(ctx, cfg.Backup.Path)
	if err != nil {
		fmt.Printf("Push failed (%s): %v\n", remote.KindOf(err), err)
		os.Exit(1)
	}

	fmt.Printf("Target:  %s\n", result.Target)
	if result.Login != "" {
		fmt.Printf("Login:   %s\n", result.Login)
	}
	fmt.Printf("Created: %t\n", result.Created)
	if result.CommitSHA != "" {
		fmt.Printf("Commit:  %s\n", result.CommitSHA)
	}
	if result.ContentSHA != "" {
		fmt.Printf("Content: %s\n", result.ContentSHA)
	}
	fmt.Println("Remote is reachable")
}
