package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/api"
	"go-photo-gallery/internal/api/handlers"
	"go-photo-gallery/internal/api/middleware"
	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/database"
	"go-photo-gallery/internal/gallery"
	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/storage"
	"go-photo-gallery/internal/store"
	"go-photo-gallery/internal/utils"
	"go-photo-gallery/internal/validation"
	"go-photo-gallery/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.With("main")

	// Initialize Database
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := validation.RegisterWithGin(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	pusher, err := storage.NewPusher(cfg.Remote)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure remote")
	}

	status := websocket.NewManager()
	defer status.Close()

	opts := gallery.Options{
		SnapshotPath: cfg.Backup.Path,
		SyncOnBoot:   cfg.Backup.SyncOnBoot,
		Images:       utils.ImageOptions{MaxDimension: cfg.Images.MaxDimension, Quality: cfg.Images.JPEGQuality},
		Pusher:       pusher,
		Notifier:     status,
	}
	svc := gallery.NewService(store.New(db), opts)

	boot, err := svc.Bootstrap(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap gallery")
	}
	event := log.Info().Int("seeded", boot.Seeded)
	if boot.Restore != nil {
		event = event.Str("restore", string(boot.Restore.Status)).
			Int("folders", boot.Restore.Restored.Folders).
			Int("images", boot.Restore.Restored.Images).
			Int("surveys", boot.Restore.Restored.Surveys)
	}
	if boot.Commit != nil && boot.Commit.SyncError != "" {
		event = event.Str("sync_error", boot.Commit.SyncError)
	}
	event.Msg("gallery ready")

	auth, err := handlers.NewAuthHandler(cfg.Admin)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure admin login")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	api.SetupRoutes(router, api.Dependencies{
		Gallery:       svc,
		Auth:          auth,
		Status:        status,
		Admin:         cfg.Admin,
		MaxUploadSize: cfg.Images.MaxUploadSize,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("remote", cfg.Remote.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
