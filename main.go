package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"inboxrank/server/internal/config"
	"inboxrank/server/internal/database"
	"inboxrank/server/internal/handlers"
	"inboxrank/server/internal/logging"
	"inboxrank/server/internal/routes"
	"inboxrank/server/internal/store"
	"inboxrank/server/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load(os.Getenv("INBOXRANK_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if envErr != nil {
		log.Debug().Msg("No .env file found")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	if err := database.Connect(ctx, cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	conversations := store.New(database.DB)
	hub := handlers.InitWebSocket(ctx, conversations)
	handlers.Init(conversations, hub)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Inbox API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
