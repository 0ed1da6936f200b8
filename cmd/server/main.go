package main

import (
	"context"
	"os"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/lunaro-social/backend/internal/router"
	"github.com/lunaro-social/backend/pkg/config"
	"github.com/lunaro-social/backend/pkg/firebase"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.Logger = logger

	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.CloseDB()

	// Firebase is optional: without credentials the firebase-login route
	// reports the feature as unavailable and local auth still works.
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
	} else {
		logger.Warn().Msg("Firebase credentials not configured, firebase-login disabled")
	}

	// Create Echo instance
	e := echo.New()
	router.SetupMiddleware(e)

	var authClient *auth.Client
	if firebaseApp != nil {
		authClient = firebaseApp.AuthClient
	}
	if err := router.SetupRoutes(e, db.Postgres, db.Mongo, authClient, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up routes")
	}

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
