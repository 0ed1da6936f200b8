package router

import (
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/lunaro-social/backend/internal/handlers"
	"github.com/lunaro-social/backend/internal/middleware"
	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/lunaro-social/backend/internal/services"
	"github.com/lunaro-social/backend/pkg/config"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client, cfg *config.Config, log zerolog.Logger) error {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.SavedPost{},
		&models.Flag{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}
	log.Info().Msg("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Storage and services ---
	store := repositories.NewGormStore(pgdb)
	auditRepo := repositories.NewMongoAuditRepository(mgClient.Database(cfg.MongoDatabase))
	notifier := services.NewRepoNotifier(store, log)

	reactionService := services.NewReactionService(store, notifier, log)
	commentService := services.NewCommentService(store, notifier, log)
	flagService := services.NewFlagService(store, notifier, auditRepo, log)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(store, firebaseAuthClient, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	userHandler := handlers.NewUserHandler(store)
	userHandler.RegisterUserRoutes(api)

	postHandler := handlers.NewPostHandler(store)
	postHandler.RegisterPostRoutes(api)

	feedHandler := handlers.NewFeedHandler(store)
	feedHandler.RegisterFeedRoutes(api)

	commentHandler := handlers.NewCommentHandler(commentService)
	commentHandler.RegisterCommentRoutes(api)

	likeHandler := handlers.NewLikeHandler(reactionService, store)
	likeHandler.RegisterLikeRoutes(api)

	savedPostHandler := handlers.NewSavedPostHandler(reactionService, store)
	savedPostHandler.RegisterSavedPostRoutes(api)

	followHandler := handlers.NewFollowHandler(reactionService, store)
	followHandler.RegisterFollowRoutes(api)

	flagHandler := handlers.NewFlagHandler(flagService)
	flagHandler.RegisterFlagRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(store)
	notificationHandler.RegisterNotificationRoutes(api)

	log.Info().Msg("All routes configured.")
	return nil
}
